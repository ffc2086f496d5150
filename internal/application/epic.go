package application

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trello-mcp-server/internal/domain"
)

// EpicPrefix marks a card as an epic. Trello has no parent/child relation
// between cards; the prefix and the textual back-references are the whole
// of the convention.
const EpicPrefix = "[EPIC] "

// epicProgressNotice is appended to every epic description.
const epicProgressNotice = "_Progress on these sub-tasks will be tracked automatically._"

// buildEpicDescription assembles the description of an epic card.
// Sub-tasks are numbered from 1 in input order.
func buildEpicDescription(args *domain.CreateEpicArgs, createdAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Epic: %s\n\n", args.EpicName)

	if args.EpicDescription != "" {
		b.WriteString(args.EpicDescription)
		b.WriteString("\n\n")
	}

	if len(args.SubTasks) > 0 {
		b.WriteString("### Planned sub-tasks\n")
		for i, task := range args.SubTasks {
			fmt.Fprintf(&b, "%d. %s\n", i+1, task.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString(epicProgressNotice)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Created: %s", createdAt.Format("2006-01-02"))

	return b.String()
}

// buildSubTaskDescription appends the back-reference to the epic card.
func buildSubTaskDescription(task domain.SubTask, epic *domain.Card) string {
	backRef := fmt.Sprintf("Epic: [%s](%s)", epic.Name, epic.URL)
	if task.Description == "" {
		return backRef
	}
	return task.Description + "\n\n---\n" + backRef
}

// handleCreateEpic handles the create_epic tool call.
//
// The epic card is created first because every sub-card links back to its
// URL. Sub-cards are then written with at most subtaskConcurrency in flight.
// Once one fails no further sub-task is started, and cards that were
// already created are left in place.
func (h *TrelloHandler) handleCreateEpic(ctx context.Context, args *domain.CreateEpicArgs) (*domain.ToolResponse, error) {
	epicListID, err := h.resolver.Resolve(ctx, args.ListName)
	if err != nil {
		return nil, err
	}

	epic, err := h.client.CreateCard(ctx, &domain.CardCreate{
		Name:   EpicPrefix + args.EpicName,
		Desc:   buildEpicDescription(args, h.now()),
		IDList: epicListID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create epic card: %w", err)
	}

	h.logger.Info("epic card created",
		zap.String("card_id", epic.ID),
		zap.Int("sub_tasks", len(args.SubTasks)),
	)

	subCardIDs := make([]string, len(args.SubTasks))
	var created atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.subtaskConcurrency)
	for i, task := range args.SubTasks {
		g.Go(func() error {
			// gctx only gates starting a sub-task. Calls already issued run
			// on ctx so a card that reaches Trello is also counted.
			if gctx.Err() != nil {
				return nil
			}

			listID := epicListID
			if task.ListName != "" {
				id, err := h.resolver.Resolve(ctx, task.ListName)
				if err != nil {
					return fmt.Errorf("sub-task %q: %w", task.Name, err)
				}
				listID = id
			}

			card, err := h.client.CreateCard(ctx, &domain.CardCreate{
				Name:   task.Name,
				Desc:   buildSubTaskDescription(task, epic),
				IDList: listID,
			})
			if err != nil {
				return fmt.Errorf("sub-task %q: failed to create card: %w", task.Name, err)
			}

			subCardIDs[i] = card.ID
			created.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.Warn("epic partially created",
			zap.String("epic_id", epic.ID),
			zap.Int32("sub_cards_created", created.Load()),
			zap.Int("sub_tasks", len(args.SubTasks)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w (epic %s created with %d of %d sub-cards, nothing rolled back)",
			err, epic.URL, created.Load(), len(args.SubTasks))
	}

	return h.mapper.MapToToolResponse(formatEpicCreated(epic, args, len(subCardIDs))), nil
}
