// Package store selects a conversation store backend from configuration.
package store

import (
	"fmt"

	"github.com/sciencemonk/talktomysim-sub002/pkg/chat"
	"github.com/sciencemonk/talktomysim-sub002/pkg/config"
	"github.com/sciencemonk/talktomysim-sub002/pkg/store/memory"
	"github.com/sciencemonk/talktomysim-sub002/pkg/store/rest"
)

// FromConfig builds the store named by cfg.Store.Backend.
func FromConfig(cfg config.Config) (chat.ConversationStore, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return memory.New(), nil
	case "rest":
		return rest.New(cfg.Store)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
