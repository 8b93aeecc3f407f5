package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

var (
	Address         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	SelectedAddress = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	Symbol          = lipgloss.NewStyle().Foreground(charmtone.Salt)
	PLTSymbol       = lipgloss.NewStyle().Foreground(charmtone.Squid)
	ListTitle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).MarginLeft(2)
	Spinner         = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	Error           = lipgloss.NewStyle().Foreground(charmtone.Coral)

	// MenuBar is sized with Width before rendering.
	MenuBar = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("252")).
		Padding(0, 1)
)
