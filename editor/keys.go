package editor

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/npillmayer/outline/node"
)

// keyGen produces node keys of the form <prefix>:<counter>.
type keyGen struct {
	prefix  string
	counter uint64
}

func newKeyGen(prefix string) *keyGen {
	if prefix == "" {
		prefix = strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	return &keyGen{prefix: prefix}
}

func (g *keyGen) next() node.Key {
	g.counter++
	return node.Key(g.prefix + ":" + strconv.FormatUint(g.counter, 10))
}
