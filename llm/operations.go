package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"wayfarer/models"

	"github.com/openai/openai-go"
)

const historyLimit = 6

// GeneratePlan asks the model for a full draft plan covering every day of
// the trip.
func (c *Client) GeneratePlan(ctx context.Context, req models.TravelRequest, duration int) (*models.PlanDraft, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(planSystemPrompt),
		openai.UserMessage(buildPlanPrompt(req, duration)),
	}

	content, err := c.chatJSON(ctx, msgs)
	if err != nil {
		return nil, err
	}

	var draft models.PlanDraft
	if err := decodeInto(content, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// planEnvelope tolerates the model returning transportation as either an
// object or a list.
type planEnvelope struct {
	models.TravelPlan
	Transportation json.RawMessage `json:"transportation"`
}

// ModifyPlan returns the revised plan for a free-text change request. The
// caller owns merging it over the current plan.
func (c *Client) ModifyPlan(ctx context.Context, current *models.TravelPlan, userMessage string, history []models.ConversationTurn) (*models.TravelPlan, error) {
	planJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, err
	}

	planContext := fmt.Sprintf("Here is the current travel plan that needs to be modified:\n\n```json\n%s\n```\n\nModify this plan according to the user's request. Return the complete updated plan as a valid JSON object.", planJSON)

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(modifyPlanSystemPrompt),
		openai.UserMessage(planContext),
		openai.AssistantMessage("I understand the current travel plan. What changes would you like to make?"),
	}
	msgs = append(msgs, historyMessages(history, historyLimit)...)
	msgs = append(msgs, openai.UserMessage(userMessage))

	content, err := c.chatJSON(ctx, msgs)
	if err != nil {
		return nil, err
	}

	var env planEnvelope
	if err := decodeInto(content, &env); err != nil {
		return nil, err
	}

	plan := env.TravelPlan
	plan.Transportation = env.legs()
	return &plan, nil
}

// legs accepts a bare object where a list is expected.
func (env *planEnvelope) legs() []models.Transportation {
	if len(env.Transportation) == 0 {
		return nil
	}
	var list []models.Transportation
	if err := json.Unmarshal(env.Transportation, &list); err == nil {
		return list
	}
	var single models.Transportation
	if err := json.Unmarshal(env.Transportation, &single); err == nil {
		return []models.Transportation{single}
	}
	return nil
}

type dayEnvelope struct {
	Day                  *models.DayPlan `json:"day"`
	Message              string          `json:"message"`
	SuggestModifications []string        `json:"suggest_modifications"`
}

// ModifyDay returns the revised day, a user-facing confirmation, and optional
// follow-up suggestions.
func (c *Client) ModifyDay(ctx context.Context, trip *models.TripInfo, day *models.DayPlan, userMessage string, history []models.ConversationTurn) (*models.DayPlan, string, []string, error) {
	dayJSON, err := json.MarshalIndent(day, "", "  ")
	if err != nil {
		return nil, "", nil, err
	}

	tripLine := ""
	if trip != nil {
		tripLine = fmt.Sprintf("Trip: %s to %s, %d days, %d travelers, interests: %s.\n",
			trip.Source, trip.Destination, trip.DurationDays, trip.Travelers, interestsLine(trip.InterestCategories))
	}

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(modifyDaySystemPrompt),
		openai.UserMessage(fmt.Sprintf("%sCurrent day %d:\n```json\n%s\n```", tripLine, day.DayNumber, dayJSON)),
	}
	msgs = append(msgs, historyMessages(history, historyLimit)...)
	msgs = append(msgs, openai.UserMessage(userMessage))

	content, err := c.chatJSON(ctx, msgs)
	if err != nil {
		return nil, "", nil, err
	}

	var env dayEnvelope
	if err := decodeInto(content, &env); err != nil {
		return nil, "", nil, err
	}
	if env.Day == nil {
		return nil, "", nil, fmt.Errorf("%w: missing day in completion", models.ErrCollaboratorFailure)
	}
	return env.Day, env.Message, env.SuggestModifications, nil
}

// ExpandDay fills day dayNumber of the trip with concrete activities.
func (c *Client) ExpandDay(ctx context.Context, trip *models.TripInfo, dayNumber int, history []models.ConversationTurn) (*models.DayPlan, string, error) {
	prompt := fmt.Sprintf("Plan day %d of a %d-day trip from %s to %s for %d travelers starting %s. Interests: %s. Activity level: %s.",
		dayNumber, trip.DurationDays, trip.Source, trip.Destination,
		trip.Travelers, trip.StartDate, interestsLine(trip.InterestCategories), trip.ActivityLevel)

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(expandDaySystemPrompt),
	}
	msgs = append(msgs, historyMessages(history, historyLimit)...)
	msgs = append(msgs, openai.UserMessage(prompt))

	content, err := c.chatJSON(ctx, msgs)
	if err != nil {
		return nil, "", err
	}

	var env dayEnvelope
	if err := decodeInto(content, &env); err != nil {
		return nil, "", err
	}
	if env.Day == nil {
		return nil, "", fmt.Errorf("%w: missing day in completion", models.ErrCollaboratorFailure)
	}
	env.Day.DayNumber = dayNumber
	return env.Day, env.Message, nil
}

// Classify maps a free-text message onto an action variant given the
// session's workflow state.
func (c *Client) Classify(ctx context.Context, state models.WorkflowState, userMessage string, history []models.ConversationTurn) (models.Action, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(classifySystemPrompt),
		openai.SystemMessage(fmt.Sprintf("Current workflow state: %s", state)),
	}
	msgs = append(msgs, historyMessages(history, historyLimit)...)
	msgs = append(msgs, openai.UserMessage(userMessage))

	content, err := c.chatJSON(ctx, msgs)
	if err != nil {
		return models.Action{}, err
	}

	var action models.Action
	if err := decodeInto(content, &action); err != nil {
		return models.Action{}, err
	}
	if action.Kind == "" {
		action.Kind = models.ActionChat
	}
	return action, nil
}
