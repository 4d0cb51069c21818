package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

// sseEvent mirrors the five JSON shapes the server's /api/chat/stream
// endpoint writes, folded into one struct since the client only needs
// to read fields, not enforce which combination is valid.
type sseEvent struct {
	Chunk    string      `json:"chunk"`
	Replace  string      `json:"replace"`
	Done     bool        `json:"done"`
	Error    bool        `json:"error"`
	Cached   bool        `json:"cached"`
	Filtered bool        `json:"filtered"`
	Sources  []sourceRef `json:"sources"`
}

type sourceRef struct {
	Filename string  `json:"filename"`
	Category string  `json:"category"`
	Section  string  `json:"section"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	events := make(chan sseEvent, 16)
	errc := make(chan error, 1)

	go func() {
		errc <- streamChat(cmd.Context(), question, events)
	}()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return renderPlain(events, errc)
	}
	return renderInteractive(question, events, errc)
}

func streamChat(ctx context.Context, question string, events chan<- sseEvent) error {
	defer close(events)

	body, err := json.Marshal(map[string]string{"message": question})
	if err != nil {
		return fmt.Errorf("secctl: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("secctl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("secctl: ask request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("secctl: server returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok || payload == "" {
			continue
		}
		var ev sseEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		events <- ev
	}
	return scanner.Err()
}

func renderPlain(events <-chan sseEvent, errc <-chan error) error {
	var sources []sourceRef
	for ev := range events {
		switch {
		case ev.Error:
			return fmt.Errorf("secctl: %s", ev.Chunk)
		case ev.Replace != "":
			fmt.Print(ev.Replace)
		default:
			fmt.Print(ev.Chunk)
		}
		if len(ev.Sources) > 0 {
			sources = ev.Sources
		}
	}
	fmt.Println()
	printSourcesPlain(sources)
	return <-errc
}

func printSourcesPlain(sources []sourceRef) {
	for _, s := range sources {
		fmt.Printf("source: %s (%.2f)\n", s.Filename, s.Score)
	}
}

// askModel renders streamed answer text live, replacing the framing
// spinner with the final source list once the stream's done event arrives.
type askModel struct {
	question string
	events   <-chan sseEvent
	errc     <-chan error
	spinner  spinner.Model
	content  strings.Builder
	sources  []sourceRef
	done     bool
	errored  bool
}

type chunkMsg sseEvent
type streamClosedMsg struct{}
type streamErrMsg struct{ err error }

func waitForEvent(events <-chan sseEvent, errc <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			if err := <-errc; err != nil {
				return streamErrMsg{err}
			}
			return streamClosedMsg{}
		}
		return chunkMsg(ev)
	}
}

func renderInteractive(question string, events <-chan sseEvent, errc <-chan error) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := askModel{question: question, events: events, errc: errc, spinner: sp}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("secctl: render: %w", err)
	}
	if fm, ok := final.(askModel); ok && fm.errored {
		return fmt.Errorf("secctl: %s", fm.content.String())
	}
	return nil
}

func (m askModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events, m.errc))
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chunkMsg:
		ev := sseEvent(msg)
		switch {
		case ev.Error:
			m.errored = true
			m.content.Reset()
			m.content.WriteString(ev.Chunk)
			m.done = true
			return m, tea.Quit
		case ev.Replace != "":
			m.content.Reset()
			m.content.WriteString(ev.Replace)
		default:
			m.content.WriteString(ev.Chunk)
		}
		if len(ev.Sources) > 0 {
			m.sources = ev.Sources
		}
		if ev.Done {
			m.done = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events, m.errc)
	case streamClosedMsg:
		m.done = true
		return m, tea.Quit
	case streamErrMsg:
		m.errored = true
		m.content.WriteString(msg.err.Error())
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m askModel) View() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("> "+m.question) + "\n\n")
	if m.errored {
		b.WriteString(errorStyle.Render(m.content.String()))
	} else {
		b.WriteString(m.content.String())
		if !m.done {
			b.WriteString(" " + m.spinner.View())
		}
	}
	b.WriteString("\n")
	if m.done && !m.errored && len(m.sources) > 0 {
		b.WriteString("\n" + headingStyle.Render("sources") + "\n")
		for _, s := range m.sources {
			b.WriteString(fmt.Sprintf("  %s %s (%.2f)\n", lipgloss.NewStyle().Faint(true).Render("-"), s.Filename, s.Score))
		}
	}
	return b.String()
}
