package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

// Directive markers the model embeds in otherwise natural-language replies.
const (
	updateMarker        = "UPDATE_PROJECT:"
	transcriptWindow    = 50
	genericConfirmation = "Got it! I've noted your request."
	emptyReplyFallback  = "Done! I've updated your project."
)

// Pre-compiled patterns for directive scanning.
var (
	transitionRegex       = regexp.MustCompile(`TRANSITION_PHASE:\s*([A-Za-z]+)`)
	transitionStripRegexp = regexp.MustCompile(`[ \t]*TRANSITION_PHASE:\s*[A-Za-z]+[ \t]*`)
)

// ChatCompleter is the slice of LLMService the orchestrator needs.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []LLMMessage) (string, error)
}

// ChatService turns a user message into a stored reply, optional task
// additions and an optional phase transition, using the external LLM as the
// decision engine.
type ChatService struct {
	db       *gorm.DB
	llm      ChatCompleter
	projects *ProjectService
	phases   *PhaseService
}

func NewChatService(db *gorm.DB, llm ChatCompleter) *ChatService {
	return &ChatService{
		db:       db,
		llm:      llm,
		projects: NewProjectService(db),
		phases:   NewPhaseService(db),
	}
}

// updateDirective is the typed shape of the UPDATE_PROJECT payload.
// "tasks" is a legacy key emitted by older prompt revisions.
type updateDirective struct {
	NewTasks []directiveTask `json:"newTasks"`
	Tasks    []directiveTask `json:"tasks"`
}

type directiveTask struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"` // legacy alias for title
	Description  string  `json:"description"`
	DueDate      string  `json:"dueDate"`
	AssignedTo   string  `json:"assignedTo"`
	WorkEstimate float64 `json:"workEstimate"`
	Phase        string  `json:"phase"`
}

// HandleMessage runs the full orchestration chain: build context, call the
// LLM, extract directives, apply mutations, persist both sides of the
// exchange and return the cleaned human-facing reply.
func (s *ChatService) HandleMessage(ctx context.Context, ownerID, projectID uint, message string) (string, error) {
	project, err := s.projects.GetOwned(ownerID, projectID)
	if err != nil {
		return "", err
	}

	history, err := s.History(ownerID, projectID)
	if err != nil {
		return "", err
	}

	messages := make([]LLMMessage, 0, len(history)+2)
	messages = append(messages, LLMMessage{Role: RoleSystem, Content: buildSystemInstruction(project)})
	for _, m := range history {
		role := RoleAssistant
		if m.IsUser {
			role = RoleUser
		}
		messages = append(messages, LLMMessage{Role: role, Content: m.Message})
	}
	messages = append(messages, LLMMessage{Role: RoleUser, Content: message})

	raw, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return "", response.NewUpstreamError(err.Error(), err)
	}

	// The transition scan runs against the raw reply so a directive placed
	// anywhere in the text is honored, including next to the update block.
	if m := transitionRegex.FindStringSubmatch(raw); m != nil {
		if err := s.phases.Transition(project, m[1]); err != nil {
			return "", err
		}
	}

	newTasks, display := s.extractTaskUpdate(project, raw)
	newTasks = normalizeTaskTitles(newTasks)

	if len(newTasks) > 0 {
		titles := make([]string, 0, len(newTasks))
		for _, t := range newTasks {
			titles = append(titles, t.Title)
		}
		summary := fmt.Sprintf("I've added the following tasks to your project: %s.", strings.Join(titles, ", "))
		if display == "" {
			display = summary
		} else {
			display = display + "\n\n" + summary
		}
	}
	if display == "" {
		display = emptyReplyFallback
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		exchange := []models.ChatMessage{
			{OwnerID: ownerID, ProjectID: projectID, Message: message, IsUser: true},
			{OwnerID: ownerID, ProjectID: projectID, Message: display, IsUser: false},
		}
		return tx.Create(&exchange).Error
	})
	if err != nil {
		return "", response.NewInternalError(err)
	}

	if err := s.projects.AppendTasks(projectID, newTasks); err != nil {
		return "", err
	}

	return display, nil
}

// History returns up to the 50 most recent messages for an owned project,
// oldest first.
func (s *ChatService) History(ownerID, projectID uint) ([]models.ChatMessage, error) {
	if _, err := s.projects.GetOwned(ownerID, projectID); err != nil {
		return nil, err
	}

	var recent []models.ChatMessage
	if err := s.db.
		Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Order("timestamp DESC, id DESC").
		Limit(transcriptWindow).
		Find(&recent).Error; err != nil {
		return nil, response.NewInternalError(err)
	}

	// Reverse into ascending timestamp order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// AppendNote stores a standalone user-side transcript entry (used by
// document ingestion).
func (s *ChatService) AppendNote(ownerID, projectID uint, text string) error {
	if _, err := s.projects.GetOwned(ownerID, projectID); err != nil {
		return err
	}

	msg := models.ChatMessage{OwnerID: ownerID, ProjectID: projectID, Message: text, IsUser: true}
	if err := s.db.Create(&msg).Error; err != nil {
		return response.NewInternalError(err)
	}
	return nil
}

// extractTaskUpdate pulls the first UPDATE_PROJECT JSON object out of the
// raw reply. It returns the pending task rows and the cleaned display text
// with all directive markers removed. A malformed payload yields zero tasks
// and a generic confirmation instead of an error.
func (s *ChatService) extractTaskUpdate(project *models.Project, raw string) ([]models.Task, string) {
	idx := strings.Index(raw, updateMarker)
	if idx < 0 {
		return nil, cleanDisplayText(raw)
	}

	block, end := matchJSONObject(raw[idx+len(updateMarker):])
	if block == "" {
		logger.Warn().Uint("project_id", project.ID).Msg("update directive without a JSON block")
		return nil, directiveFallback(raw[:idx])
	}

	var directive updateDirective
	if err := json.Unmarshal([]byte(block), &directive); err != nil {
		logger.Warn().Uint("project_id", project.ID).Err(err).Msg("malformed update directive")
		return nil, directiveFallback(raw[:idx])
	}

	entries := directive.NewTasks
	if len(entries) == 0 {
		entries = directive.Tasks
	}

	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		phase := project.CurrentPhase
		if models.ValidPhase(e.Phase) {
			phase = models.Phase(e.Phase)
		}
		tasks = append(tasks, models.Task{
			ProjectID:    project.ID,
			Title:        firstNonEmpty(strings.TrimSpace(e.Title), strings.TrimSpace(e.Name)),
			Description:  e.Description,
			Status:       models.TaskToDo,
			DueDate:      ParseDueDate(e.DueDate),
			AssignedTo:   e.AssignedTo,
			WorkEstimate: e.WorkEstimate,
			Phase:        phase,
		})
	}

	display := cleanDisplayText(raw[:idx] + raw[idx+len(updateMarker)+end:])
	return tasks, display
}

// directiveFallback cleans whatever preceded a broken directive; if nothing
// readable remains, the generic confirmation is used.
func directiveFallback(prefix string) string {
	if cleaned := cleanDisplayText(prefix); cleaned != "" {
		return cleaned
	}
	return genericConfirmation
}

// cleanDisplayText strips transition markers and trims whitespace.
func cleanDisplayText(text string) string {
	return strings.TrimSpace(transitionStripRegexp.ReplaceAllString(text, ""))
}

// matchJSONObject finds the first balanced JSON object in s, ignoring braces
// inside string literals. Returns the object and the offset just past it, or
// ("", 0) if no balanced object is found.
func matchJSONObject(s string) (string, int) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", 0
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], i + 1
			}
		}
	}
	return "", 0
}

// normalizeTaskTitles guarantees every pending task a non-empty title.
// Running it on already-normalized input changes nothing.
func normalizeTaskTitles(tasks []models.Task) []models.Task {
	untitled := 0
	for i := range tasks {
		title := strings.TrimSpace(tasks[i].Title)
		if title == "" {
			untitled++
			title = fmt.Sprintf("Untitled Task %d", untitled)
		}
		tasks[i].Title = title
	}
	return tasks
}

// buildSystemInstruction assembles the phase-aware context plus the fixed
// directive protocol the model must follow.
func buildSystemInstruction(project *models.Project) string {
	var b strings.Builder

	b.WriteString("You are a project management assistant following PMBOK best practices.\n\n")
	b.WriteString("Current project context:\n")
	fmt.Fprintf(&b, "- Name: %s\n", project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", project.Description)
	}
	fmt.Fprintf(&b, "- Current phase: %s\n", project.CurrentPhase)
	fmt.Fprintf(&b, "- Status: %s\n", project.Status)

	for _, d := range project.PhaseDetails {
		if d.Phase != project.CurrentPhase {
			continue
		}
		fmt.Fprintf(&b, "- Phase completed: %t\n", d.Completed)
		if d.StartDate != nil {
			fmt.Fprintf(&b, "- Phase started: %s\n", d.StartDate.Format("2006-01-02"))
		}
		if d.Notes != "" {
			fmt.Fprintf(&b, "- Phase notes: %s\n", d.Notes)
		}
	}

	b.WriteString("\nTasks in the current phase:\n")
	count := 0
	for _, t := range project.Tasks {
		if t.Phase != project.CurrentPhase {
			continue
		}
		count++
		fmt.Fprintf(&b, "- %s [%s]", t.Title, t.Status)
		if t.DueDate != nil {
			fmt.Fprintf(&b, " due %s", t.DueDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	if count == 0 {
		b.WriteString("- (none)\n")
	}

	b.WriteString("\nDocuments in the current phase:\n")
	count = 0
	for _, d := range project.Documents {
		if d.Phase != project.CurrentPhase {
			continue
		}
		count++
		fmt.Fprintf(&b, "- %s\n", d.Name)
	}
	if count == 0 {
		b.WriteString("- (none)\n")
	}

	b.WriteString(`
Protocol:
1. Answer the user's question conversationally.
2. Only when the user explicitly requests an actionable task, append a line:
   UPDATE_PROJECT: { "newTasks": [ { "title": "...", "dueDate": "YYYY-MM-DD", "phase": "Planning|Execution|Monitoring|Closure" } ] }
3. When the user asks to move the project to another phase, append a line:
   TRANSITION_PHASE: <Planning|Execution|Monitoring|Closure>
4. Never reveal internal identifiers (project ids, task ids) to the user.
`)

	return b.String()
}
