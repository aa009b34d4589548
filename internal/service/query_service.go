package service

import (
	"context"
	"fmt"

	"streamchat/internal/domain"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

func newPagination(page, limit, total int) *Pagination {
	pages := (total + limit - 1) / limit
	return &Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// ListMessagesInput carries the paging, sorting and filtering options of a
// message listing.
type ListMessagesInput struct {
	Page           int
	Limit          int
	Sort           domain.MessageSort
	Type           *domain.MessageType
	IncludeDeleted bool
}

// ConversationSummary is one entry of a user's conversation list, enriched
// with the last-message snapshot and that user's derived unread count.
type ConversationSummary struct {
	Conversation *domain.Conversation `json:"conversation"`
	LastMessage  *domain.Message      `json:"last_message"`
	UnreadCount  int                  `json:"unread_count"`
}

// QueryService is the read side: paginated listings over messages and over a
// user's conversations. It composes the repositories and never mutates them.
type QueryService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository

	maxPageSize int
}

func NewQueryService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	maxPageSize int,
) *QueryService {
	return &QueryService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		maxPageSize:   maxPageSize,
	}
}

// Out-of-range paging is rejected, not clamped.
func (s *QueryService) validatePage(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if limit < 1 || limit > s.maxPageSize {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, s.maxPageSize)
	}
	return nil
}

// ListMessages returns one page of messages for the target, ordered by id
// ascending (oldest) or descending (newest). Soft-deleted messages are
// excluded from both the items and the pagination total unless
// IncludeDeleted is set.
func (s *QueryService) ListMessages(ctx context.Context, t domain.Target, in ListMessagesInput) ([]*domain.Message, *Pagination, error) {
	if err := s.validatePage(in.Page, in.Limit); err != nil {
		return nil, nil, err
	}
	sort := in.Sort
	switch sort {
	case "":
		sort = domain.SortNewest
	case domain.SortNewest, domain.SortOldest:
	default:
		return nil, nil, fmt.Errorf("%w: unknown sort order %q", domain.ErrValidation, in.Sort)
	}
	if in.Type != nil && !in.Type.IsValid() {
		return nil, nil, fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, *in.Type)
	}

	filter := domain.MessageFilter{Type: in.Type, IncludeDeleted: in.IncludeDeleted}
	total, err := s.messages.CountByTarget(ctx, t, filter)
	if err != nil {
		return nil, nil, err
	}

	offset := (in.Page - 1) * in.Limit
	items, err := s.messages.ListByTarget(ctx, t, filter, sort, offset, in.Limit)
	if err != nil {
		return nil, nil, err
	}
	return items, newPagination(in.Page, in.Limit, total), nil
}

// ListConversations returns one page of the user's conversations, most
// recently active first. Conversations without any message appear with a nil
// last message and an unread count of zero.
func (s *QueryService) ListConversations(ctx context.Context, userID int64, page, limit int) ([]*ConversationSummary, *Pagination, error) {
	if err := s.validatePage(page, limit); err != nil {
		return nil, nil, err
	}

	total, err := s.conversations.CountForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	convs, err := s.conversations.ListForUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		sum := &ConversationSummary{Conversation: conv}

		if conv.LastMessageID != nil {
			last, err := s.messages.GetByID(ctx, *conv.LastMessageID)
			if err != nil {
				return nil, nil, err
			}
			sum.LastMessage = last
		}

		p, err := s.participants.Get(ctx, conv.ID, userID)
		if err != nil {
			return nil, nil, err
		}
		if p != nil {
			count, err := s.messages.CountUnread(ctx, conv.ID, userID, p.LastReadMessageID)
			if err != nil {
				return nil, nil, err
			}
			sum.UnreadCount = count
		}

		summaries = append(summaries, sum)
	}

	return summaries, newPagination(page, limit, total), nil
}
