package components

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-uart/internal/tui/colors"
	"github.com/allbin/go-uart/internal/tui/styles"
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

const historyLimit = 100

var errEmptyInput = errors.New("empty input")

// Input is the line editor messages are queued from.
type Input struct {
	textInput    textinput.Model
	sendingMode  SendingMode
	history      []string
	historyIndex int
	draft        string
	width        int
}

func NewInput() *Input {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = ""

	in := &Input{textInput: ti, historyIndex: -1}
	in.setPlaceholder()
	return in
}

func (i *Input) setPlaceholder() {
	if i.sendingMode == SendingModeHex {
		i.textInput.Placeholder = "hex bytes, e.g. 48656C6C6F or 48 65 6C 6C 6F"
	} else {
		i.textInput.Placeholder = "text, queued with a trailing newline"
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border, padding, prompt and a space
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *Input) ToggleSendingMode() {
	if i.sendingMode == SendingModeHex {
		i.sendingMode = SendingModeASCII
	} else {
		i.sendingMode = SendingModeHex
	}
	i.setPlaceholder()
}

func (i *Input) GetSendingMode() SendingMode {
	return i.sendingMode
}

// Payload converts the current line to the bytes to queue.
func (i *Input) Payload() ([]byte, error) {
	return ParsePayload(i.textInput.Value(), i.sendingMode)
}

// ParsePayload converts s to bytes. Text gets a trailing newline; hex may be
// space separated or continuous.
func ParsePayload(s string, mode SendingMode) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errEmptyInput
	}
	if mode == SendingModeASCII {
		return []byte(s + "\n"), nil
	}
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return cmd
}

func (i *Input) View(insert bool) string {
	symbol, c := ">", colors.Green
	if i.sendingMode == SendingModeHex {
		symbol, c = "#", colors.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(c).Bold(true).Render(symbol)

	var body string
	if insert {
		body = i.textInput.View()
	} else {
		body = styles.MutedStyle.Render("Press 'i' to queue data, '?' for keys")
	}

	style := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		style = style.BorderForeground(colors.Green)
	}
	return style.Render(lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", body))
}

// AddToHistory records line unless it is blank or repeats the last entry.
func (i *Input) AddToHistory(line string) {
	line = strings.TrimSpace(line)
	i.historyIndex = -1
	i.draft = ""
	if line == "" || (len(i.history) > 0 && i.history[len(i.history)-1] == line) {
		return
	}
	i.history = append(i.history, line)
	if len(i.history) > historyLimit {
		i.history = i.history[1:]
	}
}

func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.draft = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) NavigateHistoryDown() {
	if i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.draft)
	i.draft = ""
}
