package tui

import (
	"github.com/leapstack-labs/slickdata/internal/client"
	"github.com/leapstack-labs/slickdata/pkg/core"
)

// connectionsMsg carries a freshly loaded connection list.
type connectionsMsg struct {
	conns []core.ConnectionConfig
}

// connectedMsg carries an open client. The model owns its reference.
type connectedMsg struct {
	client *client.Client
}

type tablesMsg struct {
	connection string
	tables     []core.Table
}

// resultMsg reports that a run or sort finished and the view is at gen.
type resultMsg struct {
	gen uint64
}

// generationMsg comes from the view's notifier.
type generationMsg uint64

// reloadMsg reports a change to the connections file on disk.
type reloadMsg struct{}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }
