package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
)

func msg(channelID, messageID int64, replyTo *int64) *entities.Message {
	return &entities.Message{
		ID:               entities.MessageKey(channelID, messageID),
		MessageID:        messageID,
		ChannelID:        channelID,
		ReplyToMessageID: replyTo,
	}
}

func ref(id int64) *int64 { return &id }

func TestResolve_ParentlessMessagesAreOwnRoots(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 1, nil),
		msg(10, 2, nil),
	}

	exceeded := Resolve(batch, nil)

	require.Empty(t, exceeded)
	assert.Equal(t, "10-1", batch[0].ThreadID)
	assert.Equal(t, "10-2", batch[1].ThreadID)
}

func TestResolve_BatchLocalChainSharesRoot(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 1, nil),
		msg(10, 2, ref(1)),
		msg(10, 3, ref(2)),
		msg(10, 4, ref(3)),
	}

	exceeded := Resolve(batch, nil)

	require.Empty(t, exceeded)
	for _, m := range batch {
		assert.Equal(t, "10-1", m.ThreadID, "message %d", m.MessageID)
	}
}

func TestResolve_ChainResolvesRegardlessOfBatchOrder(t *testing.T) {
	// replies arrive before their parents
	batch := []*entities.Message{
		msg(10, 4, ref(3)),
		msg(10, 3, ref(2)),
		msg(10, 2, ref(1)),
		msg(10, 1, nil),
	}

	exceeded := Resolve(batch, nil)

	require.Empty(t, exceeded)
	for _, m := range batch {
		assert.Equal(t, "10-1", m.ThreadID)
	}
}

func TestResolve_PersistedParentCarriesThread(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 20, ref(5)),
		msg(10, 21, ref(20)),
	}
	persisted := map[int64]ParentRef{
		5: {ID: "10-5", ThreadID: "10-1"},
	}

	exceeded := Resolve(batch, persisted)

	require.Empty(t, exceeded)
	assert.Equal(t, "10-1", batch[0].ThreadID)
	assert.Equal(t, "10-1", batch[1].ThreadID)
}

func TestResolve_PersistedRootWithoutThreadUsesOwnID(t *testing.T) {
	// rows persisted before thread tracking have an empty thread id
	batch := []*entities.Message{
		msg(10, 20, ref(5)),
	}
	persisted := map[int64]ParentRef{
		5: {ID: "10-5"},
	}

	exceeded := Resolve(batch, persisted)

	require.Empty(t, exceeded)
	assert.Equal(t, "10-5", batch[0].ThreadID)
}

func TestResolve_MissingParentDegradesToOwnRoot(t *testing.T) {
	// parent was deleted upstream and never ingested
	batch := []*entities.Message{
		msg(10, 20, ref(7)),
	}

	exceeded := Resolve(batch, nil)

	require.Empty(t, exceeded)
	assert.Equal(t, "10-20", batch[0].ThreadID)
}

func TestResolve_SelfReplyIsDegradedAndReported(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 5, ref(5)),
	}

	exceeded := Resolve(batch, nil)

	assert.Equal(t, []string{"10-5"}, exceeded)
	assert.Equal(t, "10-5", batch[0].ThreadID)
}

func TestResolve_ReplyCycleIsDegradedAndReported(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 1, ref(2)),
		msg(10, 2, ref(1)),
	}

	exceeded := Resolve(batch, nil)

	assert.Len(t, exceeded, 2)
	assert.Equal(t, "10-1", batch[0].ThreadID)
	assert.Equal(t, "10-2", batch[1].ThreadID)
}

func TestResolve_DepthCapDegradesDeepTail(t *testing.T) {
	// chain of MaxDepth+10 messages hanging off one root
	batch := []*entities.Message{msg(10, 1, nil)}
	for i := int64(2); i <= int64(MaxDepth)+11; i++ {
		batch = append(batch, msg(10, i, ref(i-1)))
	}

	exceeded := Resolve(batch, nil)

	// messages within the cap share the root
	assert.Equal(t, "10-1", batch[MaxDepth].ThreadID)
	// messages beyond the cap degrade to singleton roots
	require.Len(t, exceeded, 10)
	last := batch[len(batch)-1]
	assert.Equal(t, last.ID, last.ThreadID)
}

func TestResolve_ForkedThreadSharesOneRoot(t *testing.T) {
	batch := []*entities.Message{
		msg(10, 1, nil),
		msg(10, 2, ref(1)),
		msg(10, 3, ref(1)),
		msg(10, 4, ref(2)),
		msg(10, 5, ref(3)),
	}

	exceeded := Resolve(batch, nil)

	require.Empty(t, exceeded)
	for _, m := range batch {
		assert.Equal(t, "10-1", m.ThreadID)
	}
}
