// Package cli implements the interactive command-line interface for
// operating the rotation controller: listing servers, inspecting
// current maps, browsing the catalogue, and switching layers.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/frontline-project/frontline/internal/crcon"
	"github.com/frontline-project/frontline/internal/events"
	"github.com/frontline-project/frontline/internal/maps"
	"github.com/frontline-project/frontline/internal/registry"
)

// CLI provides an interactive command-line interface.
type CLI struct {
	registry  *registry.Registry
	catalogue *maps.Catalogue
	crcon     *crcon.Client // nil when CRCON is not configured
	eventBus  *events.EventBus
}

// NewCLI creates a CLI handler. The CRCON client may be nil.
func NewCLI(reg *registry.Registry, catalogue *maps.Catalogue, crconClient *crcon.Client, eventBus *events.EventBus) *CLI {
	return &CLI{
		registry:  reg,
		catalogue: catalogue,
		crcon:     crconClient,
		eventBus:  eventBus,
	}
}

// Start begins the interactive CLI loop.
func (c *CLI) Start(ctx context.Context) {
	fmt.Println("\nFrontline CLI ready. Type 'help' for available commands.")
	fmt.Println("─────────────────────────────────────────────────────")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("frontline> ")

		var line string
		var open bool
		select {
		case <-ctx.Done():
			return
		case line, open = <-lines:
			if !open {
				return
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if err := c.execute(ctx, cmd, args); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// execute processes a single CLI command.
func (c *CLI) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		c.printHelp()
	case "servers", "s":
		c.printServers()
	case "map", "m":
		return c.cmdCurrentMap(args)
	case "setmap":
		return c.cmdSetMap(ctx, args)
	case "maps":
		return c.cmdMaps(ctx, args)
	case "variants", "v":
		return c.cmdVariants(ctx, args)
	case "refresh":
		return c.cmdRefresh(ctx)
	case "gamestate", "gs":
		return c.cmdGamestate(ctx)
	case "quit", "exit", "q":
		fmt.Println("Shutting down...")
		c.eventBus.Emit(ctx, events.Event{
			Type:   events.EventShutdown,
			Source: "cli",
		})
	default:
		fmt.Printf("Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
	return nil
}

// printHelp displays available commands.
func (c *CLI) printHelp() {
	fmt.Println("\n╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    Frontline CLI Commands                    ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  servers                 List configured servers             ║")
	fmt.Println("║  map <index>             Show a server's current map         ║")
	fmt.Println("║  setmap <index> <layer>  Switch a server to a layer id       ║")
	fmt.Println("║  maps [mode]             List game modes, or maps in a mode  ║")
	fmt.Println("║  variants <mode> <map>   List a map's variants and layer ids ║")
	fmt.Println("║  refresh                 Force a map catalogue refresh       ║")
	fmt.Println("║  gamestate               Show live game state (CRCON)        ║")
	fmt.Println("║  quit                    Shut down                           ║")
	fmt.Println("║  help                    Show this help message              ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printServers displays the configured servers in a formatted table.
func (c *CLI) printServers() {
	fmt.Println()

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Index", "Name"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, srv := range c.registry.ListServers() {
		tw.Append([]string{
			strconv.Itoa(srv.Index),
			srv.Name,
		})
	}

	tw.Render()
	fmt.Println()
}

func (c *CLI) cmdCurrentMap(args []string) error {
	index, err := parseIndexArg(args)
	if err != nil {
		return err
	}

	fmt.Printf("Current map: %s\n", c.registry.CurrentMap(index))
	return nil
}

func (c *CLI) cmdSetMap(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: setmap <index> <layer id>")
	}

	index, err := parseIndexArg(args)
	if err != nil {
		return err
	}

	ok, msg := c.registry.ChangeMap(ctx, index, args[1])
	if !ok {
		return fmt.Errorf("%s", msg)
	}
	fmt.Println(msg)
	return nil
}

func (c *CLI) cmdMaps(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Game modes: %s\n", strings.Join(c.catalogue.Modes(ctx), ", "))
		return nil
	}

	mode := strings.ToLower(args[0])
	names := c.catalogue.MapsForMode(ctx, mode)
	if len(names) == 0 {
		return fmt.Errorf("unknown game mode: %s", mode)
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Map", "Variants"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, name := range names {
		tw.Append([]string{
			name,
			strconv.Itoa(len(c.catalogue.VariantsForMap(ctx, mode, name))),
		})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) cmdVariants(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: variants <mode> <map name>")
	}

	mode := strings.ToLower(args[0])
	mapName := strings.Join(args[1:], " ")

	variants := c.catalogue.VariantsForMap(ctx, mode, mapName)
	if len(variants) == 0 {
		return fmt.Errorf("no variants for %s in %s", mapName, mode)
	}

	fmt.Println()
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Variant", "Layer ID"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, v := range variants {
		tw.Append([]string{v.Label, v.ID})
	}

	tw.Render()
	fmt.Println()
	return nil
}

func (c *CLI) cmdRefresh(ctx context.Context) error {
	if err := c.catalogue.Refresh(ctx, true); err != nil {
		return err
	}
	fmt.Println("Catalogue refreshed")
	return nil
}

func (c *CLI) cmdGamestate(ctx context.Context) error {
	if c.crcon == nil {
		return fmt.Errorf("crcon is not configured")
	}

	gs, err := c.crcon.GetGamestate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n  Current map:    %v\n", gs.CurrentMap)
	fmt.Printf("  Next map:       %v\n", gs.NextMap)
	fmt.Printf("  Allied players: %d\n", gs.NumAlliedPlayers)
	fmt.Printf("  Axis players:   %d\n", gs.NumAxisPlayers)
	fmt.Printf("  Score:          %d - %d\n", gs.AlliedScore, gs.AxisScore)
	fmt.Printf("  Time remaining: %s\n\n", gs.TimeRemaining)
	return nil
}

func parseIndexArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("server index required")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid server index: %s", args[0])
	}
	return index, nil
}
