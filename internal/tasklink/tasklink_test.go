package tasklink_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/tests/testutil"
)

func TestInverse(t *testing.T) {
	tests := map[model.LinkType]model.LinkType{
		model.LinkBlocks:     model.LinkBlockedBy,
		model.LinkBlockedBy:  model.LinkBlocks,
		model.LinkParent:     model.LinkChild,
		model.LinkChild:      model.LinkParent,
		model.LinkRelatesTo:  model.LinkRelatesTo,
		model.LinkDuplicates: model.LinkDuplicates,
	}
	for in, want := range tests {
		assert.Equal(t, want, tasklink.Inverse(in), in)
		assert.Equal(t, in, tasklink.Inverse(tasklink.Inverse(in)), "inverse of inverse for %s", in)
	}
}

func TestProject(t *testing.T) {
	blocks := model.TaskLink{ID: "l1", FromTaskID: "A", ToTaskID: "B", Type: model.LinkBlocks}

	fromA, ok := tasklink.Project(blocks, "A")
	require.True(t, ok)
	assert.Equal(t, model.DirectionOut, fromA.Direction)
	assert.Equal(t, model.LinkBlocks, fromA.DisplayType)
	assert.Equal(t, "B", fromA.TaskID)

	fromB, ok := tasklink.Project(blocks, "B")
	require.True(t, ok)
	assert.Equal(t, model.DirectionIn, fromB.Direction)
	assert.Equal(t, model.LinkBlockedBy, fromB.DisplayType)
	assert.Equal(t, "A", fromB.TaskID)

	_, ok = tasklink.Project(blocks, "C")
	assert.False(t, ok)

	dup := model.TaskLink{ID: "l2", FromTaskID: "A", ToTaskID: "B", Type: model.LinkDuplicates}
	for _, viewer := range []string{"A", "B"} {
		view, ok := tasklink.Project(dup, viewer)
		require.True(t, ok)
		assert.Equal(t, model.DirectionUndirected, view.Direction)
		assert.Equal(t, model.LinkDuplicates, view.DisplayType)
	}
}

func newService(t *testing.T) (*tasklink.Service, *store.SQLiteStore, testutil.Board) {
	t.Helper()
	s := testutil.NewTestStore(t)
	board := testutil.SeedBoard(t, s, "Kaneo", "kan")
	return tasklink.NewService(s, zaptest.NewLogger(t)), s, board
}

func TestCreateLink_Validation(t *testing.T) {
	svc, s, board := newService(t)
	ctx := context.Background()
	a := testutil.SeedTask(t, s, board, "A")
	b := testutil.SeedTask(t, s, board, "B")

	_, err := svc.CreateLink(ctx, a.ID, a.ID, model.LinkBlocks, "")
	assert.ErrorIs(t, err, tasklink.ErrSelfLink)

	_, err = svc.CreateLink(ctx, a.ID, b.ID, "depends_on", "")
	assert.ErrorIs(t, err, tasklink.ErrInvalidLinkType)

	_, err = svc.CreateLink(ctx, a.ID, "missing", model.LinkBlocks, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateLink_StoresSingleEdge(t *testing.T) {
	svc, s, board := newService(t)
	ctx := context.Background()
	a := testutil.SeedTask(t, s, board, "Write API")
	b := testutil.SeedTask(t, s, board, "Ship UI")

	link, err := svc.CreateLink(ctx, a.ID, b.ID, model.LinkBlocks, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", link.CreatedBy)

	fromA, err := svc.ListLinks(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, fromA, 1)
	assert.Equal(t, model.LinkBlocks, fromA[0].DisplayType)
	assert.Equal(t, model.DirectionOut, fromA[0].Direction)
	assert.Equal(t, b.ID, fromA[0].TaskID)
	assert.Equal(t, "Ship UI", fromA[0].TaskTitle)

	fromB, err := svc.ListLinks(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, fromB, 1)
	assert.Equal(t, link.ID, fromB[0].ID, "the inverse view is the same row")
	assert.Equal(t, model.LinkBlockedBy, fromB[0].DisplayType)
	assert.Equal(t, model.DirectionIn, fromB[0].Direction)
	assert.Equal(t, "Write API", fromB[0].TaskTitle)
}

func TestCreateLink_DuplicatesAllowed(t *testing.T) {
	svc, s, board := newService(t)
	ctx := context.Background()
	a := testutil.SeedTask(t, s, board, "A")
	b := testutil.SeedTask(t, s, board, "B")

	_, err := svc.CreateLink(ctx, a.ID, b.ID, model.LinkRelatesTo, "")
	require.NoError(t, err)
	_, err = svc.CreateLink(ctx, a.ID, b.ID, model.LinkRelatesTo, "")
	require.NoError(t, err)

	views, err := svc.ListLinks(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, model.DirectionUndirected, v.Direction)
	}
}

func TestDeleteLink(t *testing.T) {
	svc, s, board := newService(t)
	ctx := context.Background()
	a := testutil.SeedTask(t, s, board, "A")
	b := testutil.SeedTask(t, s, board, "B")
	c := testutil.SeedTask(t, s, board, "C")

	keep, err := svc.CreateLink(ctx, a.ID, c.ID, model.LinkParent, "")
	require.NoError(t, err)
	drop, err := svc.CreateLink(ctx, a.ID, b.ID, model.LinkParent, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteLink(ctx, c.ID, drop.ID), store.ErrNotFound, "link does not touch c")
	require.NoError(t, svc.DeleteLink(ctx, b.ID, drop.ID), "either endpoint may delete")
	assert.ErrorIs(t, svc.DeleteLink(ctx, b.ID, drop.ID), store.ErrNotFound)

	views, err := svc.ListLinks(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, keep.ID, views[0].ID)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		_, err := s.GetTaskByID(ctx, id)
		assert.NoError(t, err, "tasks survive link deletion")
	}
}
