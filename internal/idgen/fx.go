package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicedesk/internal/config"
	"go.uber.org/fx"
)

// Module provides the snowflake node behind every row id. Processes sharing
// one database must run on distinct nodes; NODE_ID replaces fallback.
func Module(fallback int64) fx.Option {
	return fx.Module("idgen", fx.Provide(func(cfg config.Config) (*snowflake.Node, error) {
		id := fallback
		if cfg.NodeID > 0 {
			id = cfg.NodeID
		}
		node, err := snowflake.NewNode(id)
		if err != nil {
			return nil, fmt.Errorf("snowflake node %d: %w", id, err)
		}
		return node, nil
	}))
}
