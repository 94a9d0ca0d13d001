package config

import "embed"

//go:embed boards/*.yaml
var boards embed.FS

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, err := boards.ReadFile("boards/" + device + ".yaml")
	if err != nil {
		return nil, false
	}
	return b, true
}

// Devices lists the boards with an embedded configuration.
func Devices() []string {
	ents, err := boards.ReadDir("boards")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		n := e.Name()
		out = append(out, n[:len(n)-len(".yaml")])
	}
	return out
}
