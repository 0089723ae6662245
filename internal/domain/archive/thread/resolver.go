// Package thread computes thread root identifiers for batches of
// Telegram messages. A message's thread is the oldest ancestor in its
// reply chain; ancestors may live in persisted storage or inside the
// same incoming batch, so resolution is a reachability fixpoint over
// the batch-local reply graph rooted at an anchor set.
package thread

import "github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"

// MaxDepth caps reply-chain propagation to guard against accidental or
// malicious cycles in reply pointers.
const MaxDepth = 50

// ParentRef points at an already-persisted parent message
type ParentRef struct {
	// ID is the parent's composite primary key
	ID string
	// ThreadID is the parent's resolved thread; empty when the parent
	// is itself a root persisted before thread tracking existed
	ThreadID string
}

// Resolve assigns ThreadID to every message in the batch, in place.
// persisted maps a reply-target message ID to its stored row for
// parents that already exist in the channel's history. The returned
// slice holds the composite IDs of messages whose chain exceeded
// MaxDepth (or sat on a reply cycle); those degrade to singleton roots
// and must be surfaced to operators as a data-quality warning.
//
// The pass is O(n): anchors are found in one sweep, then roots
// propagate breadth-first along batch-local reply edges.
func Resolve(batch []*entities.Message, persisted map[int64]ParentRef) []string {
	byMessageID := make(map[int64]*entities.Message, len(batch))
	for _, msg := range batch {
		byMessageID[msg.MessageID] = msg
	}

	// children indexes batch-local reply edges: parent message ID to
	// the messages replying to it
	children := make(map[int64][]*entities.Message)

	type queued struct {
		msg   *entities.Message
		depth int
	}
	var queue []queued

	for _, msg := range batch {
		switch {
		case msg.ReplyToMessageID == nil:
			// anchor: the message is its own thread root
			msg.ThreadID = msg.ID
			queue = append(queue, queued{msg, 0})

		case persisted[*msg.ReplyToMessageID].ID != "":
			// anchor: parent already persisted; the parent may itself
			// be a root with no thread id, in which case its own id is
			// the root
			ref := persisted[*msg.ReplyToMessageID]
			if ref.ThreadID != "" {
				msg.ThreadID = ref.ThreadID
			} else {
				msg.ThreadID = ref.ID
			}
			queue = append(queue, queued{msg, 0})

		case byMessageID[*msg.ReplyToMessageID] != nil:
			// parent is in this batch; resolved during propagation.
			// Self-replies and reply cycles land here too and are never
			// reached from an anchor, so the final sweep degrades them.
			children[*msg.ReplyToMessageID] = append(children[*msg.ReplyToMessageID], msg)

		default:
			// parent never ingested (deleted upstream): degrade to own
			// root
			msg.ThreadID = msg.ID
			queue = append(queue, queued{msg, 0})
		}
	}

	// propagate roots along batch-local edges
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]

		if head.depth >= MaxDepth {
			continue
		}
		for _, child := range children[head.msg.MessageID] {
			if child.ThreadID != "" {
				continue
			}
			child.ThreadID = head.msg.ThreadID
			queue = append(queue, queued{child, head.depth + 1})
		}
	}

	// anything still unresolved sat beyond the depth cap or on a cycle
	var exceeded []string
	for _, msg := range batch {
		if msg.ThreadID == "" {
			msg.ThreadID = msg.ID
			exceeded = append(exceeded, msg.ID)
		}
	}

	return exceeded
}
