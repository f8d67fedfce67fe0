package maps

import (
	"fmt"
	"strings"

	"github.com/frontline-project/frontline/internal/crcon"
)

// envLabels maps the environment field reported by CRCON to the label
// shown in menus. Unknown environments fall back to a title-cased form
// of the raw value.
var envLabels = map[string]string{
	"day":      "Day",
	"night":    "Night",
	"dusk":     "Dusk",
	"dawn":     "Dawn",
	"morning":  "Dawn",
	"evening":  "Evening",
	"overcast": "Overcast",
	"rain":     "Rain",
	"storm":    "Storm",
	"snow":     "Snow",
	"fog":      "Fog",
}

// factionLabels normalizes the attacker faction codes used in
// offensive layer ids.
var factionLabels = map[string]string{
	"us":     "US",
	"usa":    "US",
	"ger":    "GER",
	"deu":    "GER",
	"gb":     "GB",
	"gbr":    "GB",
	"rus":    "RUS",
	"sov":    "RUS",
	"cwu":    "CW",
	"cw":     "CW",
	"axis":   "Axis",
	"allies": "Allies",
}

func envLabel(environment string) string {
	if environment == "" {
		return "Standard"
	}
	normalized := strings.ToLower(environment)
	if label, ok := envLabels[normalized]; ok {
		return label
	}
	return titleWords(strings.ReplaceAll(normalized, "_", " "))
}

func attackerLabel(attacker string) string {
	if attacker == "" {
		return "Attack"
	}
	normalized := strings.ToLower(attacker)
	if label, ok := factionLabels[normalized]; ok {
		return label
	}
	return strings.ToUpper(normalized)
}

// variantLabel derives the menu label for a layer. Offensive layers
// are labelled by attacker, everything else by environment; when the
// environment is unreported the label is recovered from the pretty
// name suffix, e.g. "Foy Warfare (Night)" yields "Night".
func variantLabel(layer crcon.Layer) string {
	mode := strings.ToLower(layer.GameMode)
	environment := envLabel(layer.Environment)

	if mode == "offensive" {
		attacker := attackerLabel(layer.Attackers)
		if environment != "Standard" && environment != "Day" {
			return fmt.Sprintf("%s Attack (%s)", attacker, environment)
		}
		return attacker + " Attack"
	}

	if environment == "Standard" {
		baseName := layer.Map.PrettyName
		if baseName != "" && strings.HasPrefix(layer.PrettyName, baseName) {
			suffix := strings.Trim(layer.PrettyName[len(baseName):], " -")
			if suffix != "" {
				suffix = strings.ReplaceAll(suffix, titleWords(layer.GameMode), "")
				suffix = strings.Trim(suffix, " -()")
				if suffix != "" {
					return titleWords(suffix)
				}
			}
		}
		return "Standard"
	}

	return environment
}

// titleWords capitalizes the first letter of each space-separated word
// and lowercases the rest.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
