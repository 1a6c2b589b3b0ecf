package instances

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
	"github.com/roach88/taskstore/internal/testutil"
)

// The agenda view is the store's outward face; pin its exact shape.
func TestAgenda_Golden(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)

	testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColTitle:    "Write report",
		entity.ColDTStart:  int64(1704099600000), // 2024-01-01T09:00Z
		entity.ColDuration: "PT1H",
	})
	testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColTitle:    "File taxes",
		entity.ColDue:      int64(1717200000000), // all-day 2024-06-01
		entity.ColIsAllDay: int64(1),
	})
	testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColTitle: "Someday",
	})

	m := New(time.UTC, nil, slog.Default())
	require.NoError(t, st.InTx(context.Background(), func(tx *store.Tx) error {
		return m.Run(context.Background(), tx)
	}))

	rows, err := st.Agenda(context.Background(), 0, 0)
	require.NoError(t, err)

	data, err := json.MarshalIndent(rows, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t)
	g.Assert(t, "agenda", data)
}
