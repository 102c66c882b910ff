package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a vertex's position in the flow hierarchy, decoded from the
// "k{level}_" prefix of its name.
type Level int

const (
	LevelNone       Level = iota // name carries no hierarchy prefix
	LevelLocalIP                 // k1_
	LevelProtocol                // k2_
	LevelLocalPort               // k3_
	LevelRemotePort              // k4_
	LevelRemoteIP                // k5_
)

// FlowLevels is the depth of a complete localIP->remoteIP hierarchy.
const FlowLevels = int(LevelRemoteIP)

var levelNames = map[Level]string{
	LevelNone:       "none",
	LevelLocalIP:    "localIP",
	LevelProtocol:   "protocol",
	LevelLocalPort:  "localPort",
	LevelRemotePort: "remotePort",
	LevelRemoteIP:   "remoteIP",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level%d", int(l))
}

// Prefix returns the vertex-name prefix that encodes the level, e.g. "k3_".
func (l Level) Prefix() string {
	return fmt.Sprintf("k%d_", int(l))
}

// Next returns the level one step deeper in the hierarchy.
func (l Level) Next() Level {
	return l + 1
}

// ParseLevel decodes the hierarchy level from a vertex name.
// Names without a well-formed "k<n>_" prefix (n >= 1) yield LevelNone.
func ParseLevel(name string) Level {
	if !strings.HasPrefix(name, "k") {
		return LevelNone
	}
	digits, _, found := strings.Cut(name[1:], "_")
	if !found || digits == "" {
		return LevelNone
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return LevelNone
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return LevelNone
	}
	return Level(n)
}
