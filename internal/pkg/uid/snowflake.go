package uid

import (
	"github.com/bwmarrin/snowflake"
)

// Snowflake generates 63-bit time-ordered IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the
// machine identity. Pass a non-negative nodeID to pin it explicitly.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	maxNode := int64(-1 ^ (-1 << snowflake.NodeBits))

	if nodeID < 0 {
		identity, err := machineIDOrHostname()
		if err != nil {
			return nil, err
		}
		nodeID = nodeNumber(identity, maxNode+1)
	}

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
