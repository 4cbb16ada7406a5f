package experiment

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// The portal returns manifests as a JSON object mapping each aggregate
// URN to that aggregate's rspec manifest XML. Only nodes carrying an
// interface with a public IPv4 are addressable from outside the
// testbed; the rest are skipped.

type rspecManifest struct {
	Nodes []rspecNode `xml:"node"`
}

type rspecNode struct {
	ClientID string      `xml:"client_id,attr"`
	Hosts    []rspecHost `xml:"host"`
}

type rspecHost struct {
	Name string `xml:"name,attr"`
	IPv4 string `xml:"ipv4,attr"`
}

// ParseManifests decodes the manifests envelope and extracts every
// addressable node keyed by client id.
func ParseManifests(data []byte) (map[string]Node, error) {
	var envelope map[string]string
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode manifests envelope: %w", err)
	}

	nodes := make(map[string]Node)
	for aggregate, rspec := range envelope {
		parsed, err := parseRSpec([]byte(rspec))
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest for aggregate %s: %w", aggregate, err)
		}
		for id, n := range parsed {
			nodes[id] = n
		}
	}
	return nodes, nil
}

// parseRSpec extracts addressable nodes from one rspec manifest.
func parseRSpec(data []byte) (map[string]Node, error) {
	var manifest rspecManifest
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse rspec: %w", err)
	}

	nodes := make(map[string]Node)
	for _, n := range manifest.Nodes {
		if n.ClientID == "" {
			continue
		}
		for _, h := range n.Hosts {
			if h.IPv4 == "" {
				continue
			}
			nodes[n.ClientID] = Node{
				ClientID: n.ClientID,
				Hostname: h.Name,
				IPv4:     h.IPv4,
			}
			break
		}
	}
	return nodes, nil
}
