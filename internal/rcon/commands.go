package rcon

// Typed wrappers over SendCommand for the commands the rotation
// controller uses. They hold no state of their own.

// ChangeMap asks the server to switch to the given map layer id
// (e.g. "foy_warfare"). A 200 status is the only success signal; the
// new map is not echoed back.
func (s *Session) ChangeMap(mapID string) error {
	_, err := s.SendCommand("ChangeMap", mapID)
	return err
}

// ServerInformation queries one of the server's information documents
// ("session", "players", ...) and returns it as a map. Content that is
// not a map yields an empty one.
func (s *Session) ServerInformation(name, value string) (map[string]interface{}, error) {
	content, err := s.SendCommand("ServerInformation", map[string]string{
		"Name":  name,
		"Value": value,
	})
	if err != nil {
		return nil, err
	}

	if m, ok := content.(map[string]interface{}); ok {
		return m, nil
	}
	return map[string]interface{}{}, nil
}
