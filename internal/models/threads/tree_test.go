package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(text string) *Thread {
	return &Thread{ID: uuid.New(), Text: text, AuthorID: uuid.New(), CreatedAt: time.Now()}
}

func newComment(root *Thread, text string, createdAt time.Time) Thread {
	return Thread{
		ID:        uuid.New(),
		Text:      text,
		AuthorID:  uuid.New(),
		ParentID:  &root.ID,
		CreatedAt: createdAt,
	}
}

func newReply(root *Thread, parent *Thread, text string, createdAt time.Time) Thread {
	return Thread{
		ID:              uuid.New(),
		Text:            text,
		AuthorID:        uuid.New(),
		ParentID:        &root.ID,
		ParentCommentID: &parent.ID,
		CreatedAt:       createdAt,
	}
}

func TestThreadClassification(t *testing.T) {
	root := newRoot("root")
	comment := newComment(root, "comment", time.Now())
	reply := newReply(root, &comment, "reply", time.Now())

	assert.True(t, root.IsRoot())
	assert.False(t, root.IsComment())
	assert.False(t, root.IsReply())

	assert.False(t, comment.IsRoot())
	assert.True(t, comment.IsComment())
	assert.False(t, comment.IsReply())

	assert.False(t, reply.IsRoot())
	assert.False(t, reply.IsComment())
	assert.True(t, reply.IsReply())

	// Flattened back-reference: the reply's ParentID is still the root.
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, comment.ID, *reply.ParentCommentID)
}

func TestBuildThreadTreeGroupsTwoLevels(t *testing.T) {
	root := newRoot("root")
	base := time.Now()

	c1 := newComment(root, "hi", base)
	c2 := newReply(root, &c1, "reply", base.Add(time.Minute))
	root.Children = []Thread{c1, c2}

	tree := BuildThreadTree(root, uuid.Nil)

	require.Len(t, tree.Comments, 1)
	assert.Equal(t, c1.ID, tree.Comments[0].ID)

	require.Len(t, tree.Comments[0].Comments, 1)
	assert.Equal(t, c2.ID, tree.Comments[0].Comments[0].ID)
	assert.Empty(t, tree.Comments[0].Comments[0].Comments)
}

func TestBuildThreadTreeOrdersSiblingsAscending(t *testing.T) {
	root := newRoot("root")
	base := time.Now()

	c3 := newComment(root, "third", base.Add(2*time.Minute))
	c1 := newComment(root, "first", base)
	c2 := newComment(root, "second", base.Add(time.Minute))
	r2 := newReply(root, &c1, "late reply", base.Add(4*time.Minute))
	r1 := newReply(root, &c1, "early reply", base.Add(3*time.Minute))
	root.Children = []Thread{c3, r2, c1, r1, c2}

	tree := BuildThreadTree(root, uuid.Nil)

	require.Len(t, tree.Comments, 3)
	assert.Equal(t, "first", tree.Comments[0].Text)
	assert.Equal(t, "second", tree.Comments[1].Text)
	assert.Equal(t, "third", tree.Comments[2].Text)

	replies := tree.Comments[0].Comments
	require.Len(t, replies, 2)
	assert.Equal(t, "early reply", replies[0].Text)
	assert.Equal(t, "late reply", replies[1].Text)
}

func TestBuildThreadTreeTieBreaksOnID(t *testing.T) {
	root := newRoot("root")
	at := time.Now()

	a := newComment(root, "a", at)
	b := newComment(root, "b", at)
	root.Children = []Thread{b, a}

	tree := BuildThreadTree(root, uuid.Nil)
	require.Len(t, tree.Comments, 2)
	assert.True(t, lessID(tree.Comments[0].ID, tree.Comments[1].ID))
}

func TestBuildThreadTreeAnnotatesLikes(t *testing.T) {
	root := newRoot("root")
	viewer := uuid.New()
	other := uuid.New()

	root.Likes = []Like{
		{ID: uuid.New(), UserID: viewer, ThreadID: root.ID},
		{ID: uuid.New(), UserID: other, ThreadID: root.ID},
	}

	c1 := newComment(root, "comment", time.Now())
	c1.Likes = []Like{{ID: uuid.New(), UserID: other, ThreadID: c1.ID}}
	root.Children = []Thread{c1}

	tree := BuildThreadTree(root, viewer)

	assert.Equal(t, int64(2), tree.LikesCount)
	assert.True(t, tree.UserLikes)

	require.Len(t, tree.Comments, 1)
	assert.Equal(t, int64(1), tree.Comments[0].LikesCount)
	assert.False(t, tree.Comments[0].UserLikes)
}

func TestBuildThreadTreeAnonymousViewer(t *testing.T) {
	root := newRoot("root")
	root.Likes = []Like{{ID: uuid.New(), UserID: uuid.New(), ThreadID: root.ID}}

	tree := BuildThreadTree(root, uuid.Nil)
	assert.Equal(t, int64(1), tree.LikesCount)
	assert.False(t, tree.UserLikes)
}

func TestBuildThreadTreeSameTimestampReplyStaysNested(t *testing.T) {
	root := newRoot("root")
	at := time.Now()

	// The reply's id sorts ahead of its parent comment's at an equal
	// timestamp; grouping must still nest it under the comment.
	c1 := newComment(root, "comment", at)
	c1.ID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")
	r1 := newReply(root, &c1, "reply", at)
	r1.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	root.Children = []Thread{c1, r1}

	tree := BuildThreadTree(root, uuid.Nil)

	require.Len(t, tree.Comments, 1)
	assert.Equal(t, c1.ID, tree.Comments[0].ID)
	require.Len(t, tree.Comments[0].Comments, 1)
	assert.Equal(t, r1.ID, tree.Comments[0].Comments[0].ID)
}

func TestBuildThreadTreeOrphanReplySurfacesTopLevel(t *testing.T) {
	root := newRoot("root")
	missing := uuid.New()
	orphan := Thread{
		ID:              uuid.New(),
		Text:            "orphan",
		AuthorID:        uuid.New(),
		ParentID:        &root.ID,
		ParentCommentID: &missing,
		CreatedAt:       time.Now(),
	}
	root.Children = []Thread{orphan}

	tree := BuildThreadTree(root, uuid.Nil)
	require.Len(t, tree.Comments, 1)
	assert.Equal(t, orphan.ID, tree.Comments[0].ID)
}

func TestBuildThreadTreeNoComments(t *testing.T) {
	root := newRoot("root")
	tree := BuildThreadTree(root, uuid.Nil)
	assert.Empty(t, tree.Comments)
	assert.Equal(t, int64(0), tree.LikesCount)
}
