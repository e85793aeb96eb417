package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/armour-nexus/nexus-api/internal/constants"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidChatMessage = errors.New("message must be between 1 and 4000 characters")

// ChatModel produces one assistant reply.
type ChatModel interface {
	Chat(ctx context.Context, systemPrompt, message string) (*ChatResult, error)
}

// ChatContext selects how much organization data goes into the prompt.
type ChatContext string

const (
	ChatContextGeneral ChatContext = "general"
	ChatContextOrg     ChatContext = "org"
	ChatContextTeam    ChatContext = "team"
)

// AssistantService answers member questions with organization context and
// meters every reply as one ai_chat message.
type AssistantService struct {
	meter     Metering
	model     ChatModel
	orgRepo   repository.OrganizationRepository
	teamRepo  repository.TeamRepository
	eventRepo repository.EventRepository
	now       func() time.Time
}

func NewAssistantService(
	meter Metering,
	model ChatModel,
	orgRepo repository.OrganizationRepository,
	teamRepo repository.TeamRepository,
	eventRepo repository.EventRepository,
) *AssistantService {
	return &AssistantService{
		meter:     meter,
		model:     model,
		orgRepo:   orgRepo,
		teamRepo:  teamRepo,
		eventRepo: eventRepo,
		now:       time.Now,
	}
}

// ChatInput is one question from a member.
type ChatInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	TeamID         *uuid.UUID
	Message        string
	Context        ChatContext
}

// ChatReply is the assistant's answer with the caller's updated allowance.
type ChatReply struct {
	Message       string
	MessagesUsed  int64
	MessagesLimit *int64
	TokensUsed    int64
}

// Chat authorizes, reserves one message, calls the model and settles the
// token cost. A failed model call is not charged.
func (s *AssistantService) Chat(ctx context.Context, input ChatInput) (*ChatReply, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" || len([]rune(message)) > constants.MaxChatMessageLen {
		return nil, ErrInvalidChatMessage
	}
	actor := input.UserID

	var reply ChatResult
	auth, err := s.meter.Meter(ctx, gate.Request{
		Actor:          &actor,
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		Category:       models.CategoryAIChat,
		MinimumRole:    gate.MinimumRole(models.CategoryAIChat),
	}, func(ctx context.Context, auth *gate.Authorization) (int64, error) {
		prompt, err := s.systemPrompt(input, auth.Role)
		if err != nil {
			return 0, err
		}
		res, err := s.model.Chat(ctx, prompt, message)
		if err != nil {
			return 0, err
		}
		reply = *res
		return res.TotalTokens, nil
	})
	if err != nil {
		return nil, err
	}

	return &ChatReply{
		Message:       reply.Content,
		MessagesUsed:  auth.Used,
		MessagesLimit: auth.Limit,
		TokensUsed:    reply.TotalTokens,
	}, nil
}

func (s *AssistantService) systemPrompt(input ChatInput, role models.Role) (string, error) {
	var b strings.Builder
	b.WriteString("You are the Armour Nexus assistant for esports organizations. ")
	b.WriteString("You help with scheduling, roster management, strategy and content. ")
	fmt.Fprintf(&b, "The person asking holds the %s role; keep answers within what that role can act on. ", role)
	b.WriteString("Be concise and practical.\n")

	if input.Context == ChatContextGeneral || input.Context == "" {
		return b.String(), nil
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		return "", fmt.Errorf("failed to load organization: %w", err)
	}
	fmt.Fprintf(&b, "\nOrganization: %s", org.Name)
	if org.Description != "" {
		fmt.Fprintf(&b, " (%s)", org.Description)
	}
	b.WriteString("\n")

	from := s.now().UTC()
	status := models.EventStatusScheduled
	viewer := EventViewerFor(input.UserID, role)
	events, _, err := s.eventRepo.List(repository.EventFilter{
		OrganizationID: input.OrganizationID,
		TeamID:         input.TeamID,
		Status:         &status,
		StartsAfter:    &from,
		Viewer:         &viewer,
		Page:           1,
		PageSize:       constants.AssistantUpcomingEvents,
	})
	if err != nil {
		return "", fmt.Errorf("failed to load events: %w", err)
	}
	if len(events) > 0 {
		b.WriteString("Upcoming events:\n")
		for _, e := range events {
			fmt.Fprintf(&b, "- %s (%s) on %s", e.Title, e.EventType, e.StartTime.Format(time.RFC3339))
			if e.Opponent != "" {
				fmt.Fprintf(&b, " vs %s", e.Opponent)
			}
			b.WriteString("\n")
		}
	}

	if input.Context != ChatContextTeam || input.TeamID == nil {
		return b.String(), nil
	}

	team, err := s.teamRepo.FindByID(input.OrganizationID, *input.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTeamNotFound
		}
		return "", fmt.Errorf("failed to load team: %w", err)
	}
	fmt.Fprintf(&b, "Team: %s", team.Name)
	if team.Game != "" {
		fmt.Fprintf(&b, " playing %s", team.Game)
	}
	b.WriteString("\n")

	roster, err := s.teamRepo.ListActiveMembers(team.ID, constants.AssistantRosterSize)
	if err != nil {
		return "", fmt.Errorf("failed to load roster: %w", err)
	}
	if len(roster) > 0 {
		b.WriteString("Roster:\n")
		for _, m := range roster {
			fmt.Fprintf(&b, "- %s", m.Name)
			if m.Position != "" {
				fmt.Fprintf(&b, ", %s", m.Position)
			}
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}
