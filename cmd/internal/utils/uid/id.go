package uid

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/log"
)

const DefaultMachineID = 1

var (
	node *snowflake.Node
	once sync.Once
)

// Init picks the snowflake node. Only the first call has any effect.
func Init(machineID int64) {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			log.Fatalf("failed to initialize snowflake node: %v", err)
		}
	})
}

// Generate falls back to DefaultMachineID when Init was never called.
func Generate() int64 {
	Init(DefaultMachineID)
	return node.Generate().Int64()
}
