package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"disx86/internal/analysis"
	"disx86/internal/disx86/styles"
	"disx86/internal/elfx"
	"disx86/internal/ui/colorize"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewSymbols
	viewInfo
)

type symbolItem struct {
	address    uint64
	original   string
	demangled  string
	plt        bool
	filterTerm string
}

func (i symbolItem) Title() string       { return fmt.Sprintf("%x  %s", i.address, i.demangled) }
func (i symbolItem) Description() string { return "" }
func (i symbolItem) FilterValue() string { return i.filterTerm }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(symbolItem)
	if !ok {
		return
	}
	indicator, addrStyle := " ", styles.Address
	if index == m.Index() {
		indicator, addrStyle = ">", styles.SelectedAddress
	}
	nameStyle := styles.Symbol
	if i.plt {
		nameStyle = styles.PLTSymbol
	}
	fmt.Fprintf(w, " %s  %s  %s", indicator, addrStyle.Render(fmt.Sprintf("%x", i.address)), nameStyle.Render(i.demangled))
}

type model struct {
	listing     viewport.Model
	symbolsList list.Model
	info        viewport.Model
	spinner     spinner.Model
	mode        viewMode

	filepath string
	img      *elfx.Image
	symbol   string
	settings settings

	digest         string
	title          string
	result         *analysis.AnnotatorResult
	err            error
	loadingDigest  bool
	loadingListing bool
	width          int
	height         int
}

type digestCalculatedMsg struct {
	digest string
}

type symbolsMsg struct {
	items []list.Item
}

type listingMsg struct {
	title  string
	result *analysis.AnnotatorResult
	err    error
}

func calculateDigestCmd(path string) tea.Cmd {
	return func() tea.Msg {
		digest, err := digestFile(path)
		if err != nil {
			return digestCalculatedMsg{digest: fmt.Sprintf("error: %v", err)}
		}
		return digestCalculatedMsg{digest: digest}
	}
}

func readSymbolsCmd(img *elfx.Image) tea.Cmd {
	return func() tea.Msg {
		items := make([]list.Item, 0, len(img.Symbols))
		for _, sym := range img.Symbols {
			demangled := analysis.CachedDemangle(sym.Name)
			items = append(items, symbolItem{
				address:    sym.Addr,
				original:   sym.Name,
				demangled:  demangled,
				plt:        sym.IsPLT,
				filterTerm: fmt.Sprintf("%x %s", sym.Addr, demangled),
			})
		}
		return symbolsMsg{items: items}
	}
}

func disassembleCmd(img *elfx.Image, symbol string, s settings) tea.Cmd {
	return func() tea.Msg {
		title := img.Text.Name
		if symbol != "" {
			title = analysis.CachedDemangle(symbol)
		}
		res, err := disassembleImage(context.Background(), img, symbol, s)
		return listingMsg{title: title, result: res, err: err}
	}
}

// NewModel builds the TUI for img. symbol, when set, is listed first
// instead of the executable section.
func NewModel(path string, img *elfx.Image, symbol string, s settings) tea.Model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	symbolsList := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	symbolsList.SetShowStatusBar(false)
	symbolsList.SetFilteringEnabled(true)
	symbolsList.Title = "Symbols"
	symbolsList.Styles.Title = styles.ListTitle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	info := viewport.New()
	info.SetWidth(80)
	info.SetHeight(24)

	m := model{
		listing:        vp,
		symbolsList:    symbolsList,
		info:           info,
		spinner:        sp,
		filepath:       path,
		img:            img,
		symbol:         symbol,
		settings:       s,
		loadingDigest:  true,
		loadingListing: true,
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		calculateDigestCmd(m.filepath),
		readSymbolsCmd(m.img),
		disassembleCmd(m.img, m.symbol, m.settings),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case digestCalculatedMsg:
		m.digest = msg.digest
		m.loadingDigest = false
		m.updateContent()
		return m, nil

	case symbolsMsg:
		m.symbolsList.SetItems(msg.items)
		m.symbolsList.Title = fmt.Sprintf("Symbols (%d total)", len(msg.items))
		return m, nil

	case listingMsg:
		m.loadingListing = false
		m.title, m.result, m.err = msg.title, msg.result, msg.err
		m.updateContent()
		m.listing.GotoTop()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loadingDigest || m.loadingListing {
			m.updateContent()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.listing.SetWidth(msg.Width)
			m.listing.SetHeight(msg.Height - 2)
			m.symbolsList.SetWidth(msg.Width)
			m.symbolsList.SetHeight(msg.Height - 2)
			m.info.SetWidth(msg.Width)
			m.info.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		key := msg.String()
		// While filtering, keys belong to the list.
		if m.mode == viewSymbols && m.symbolsList.FilterState() == list.Filtering && key != "ctrl+c" {
			break
		}
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l":
			m.mode = viewListing
			return m, nil
		case "s":
			if len(m.symbolsList.Items()) > 0 {
				m.mode = viewSymbols
			}
			return m, nil
		case "i":
			m.mode = viewInfo
			return m, nil
		case "tab":
			m.mode = m.cycle(1)
			return m, nil
		case "shift+tab":
			m.mode = m.cycle(-1)
			return m, nil
		case "enter":
			if m.mode != viewSymbols {
				break
			}
			if item, ok := m.symbolsList.SelectedItem().(symbolItem); ok {
				m.symbol = item.original
				m.mode = viewListing
				m.loadingListing = true
				m.updateContent()
				return m, tea.Batch(disassembleCmd(m.img, item.original, m.settings), m.spinner.Tick)
			}
			return m, nil
		}
	}

	switch m.mode {
	case viewSymbols:
		m.symbolsList, cmd = m.symbolsList.Update(msg)
	case viewInfo:
		m.info, cmd = m.info.Update(msg)
	default:
		m.listing, cmd = m.listing.Update(msg)
	}
	return m, cmd
}

// cycle steps through the views, skipping symbols when there are none.
func (m model) cycle(step int) viewMode {
	next := m.mode
	for range 3 {
		next = viewMode((int(next) + step + 3) % 3)
		if next != viewSymbols || len(m.symbolsList.Items()) > 0 {
			return next
		}
	}
	return m.mode
}

func (m model) View() string {
	var content, menu string
	switch m.mode {
	case viewSymbols:
		content = m.symbolsList.View()
		menu = " Enter: disassemble • L: listing • I: info • /: filter • Tab: cycle • Q: quit "
	case viewInfo:
		content = m.info.View()
		menu = " L: listing • S: symbols • Tab: cycle • Q: quit "
	default:
		content = m.listing.View()
		menu = " S: symbols • I: info • Tab: cycle • Q: quit "
	}
	return content + "\n" + styles.MenuBar.Width(m.width).Render(menu)
}

func (m *model) updateContent() {
	width := m.width
	if width == 0 {
		width = 80
	}
	m.info.SetContent(strings.TrimSuffix(styles.RenderMarkdown(m.infoMarkdown(), width-2), "\n"))

	var sb strings.Builder
	switch {
	case m.loadingListing:
		fmt.Fprintf(&sb, "%s Disassembling...", m.spinner.View())
	case m.err != nil:
		sb.WriteString(styles.Error.Render(m.err.Error()))
	case m.result != nil:
		fmt.Fprintf(&sb, "; %s\n\n", m.title)
		for _, a := range m.result.Listing {
			line := a.String()
			if colorize.Enabled() {
				line = colorize.ColorizeInstructionLine(line)
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	m.listing.SetContent(strings.TrimSuffix(sb.String(), "\n"))
}

func (m *model) infoMarkdown() string {
	relPath := m.filepath
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := pathpkg.Rel(cwd, m.filepath); err == nil {
			relPath = rel
		}
	}

	var lines []string
	if dir := pathpkg.Dir(relPath); dir != "." {
		lines = append(lines, fmt.Sprintf("; %s/", dir))
	}
	lines = append(lines, fmt.Sprintf("; %s (%s, %s)", pathpkg.Base(relPath), fileKind(m.img), m.img.Mode))
	switch {
	case m.digest != "":
		lines = append(lines, "; "+m.digest)
	case m.loadingDigest:
		lines = append(lines, fmt.Sprintf("; %s calculating digest...", m.spinner.View()))
	}
	lines = append(lines, "")
	for _, sec := range []elfx.Section{m.img.Text, m.img.PLT, m.img.PLTSec, m.img.Rodata, m.img.Data} {
		if sec.Size != 0 {
			lines = append(lines, fmt.Sprintf("; %-10s %#x  %d bytes", sec.Name, sec.VA, sec.Size))
		}
	}
	lines = append(lines, fmt.Sprintf("; %d symbols, %d PLT stubs", len(m.img.Symbols), len(m.img.PLTStubs)))

	md := fmt.Sprintf("# disx86\n\n```\n%s\n```", strings.Join(lines, "\n"))
	if m.result != nil && len(m.result.Findings) > 0 {
		md += fmt.Sprintf("\n\n## Calls in %s\n\n", m.title)
		for _, f := range m.result.Findings {
			target := f.Target
			if target == "" {
				target = fmt.Sprintf("%#x", f.TargetVA)
			}
			md += fmt.Sprintf("- `%x` → `%s`\n", f.CallVA, target)
		}
	}
	return md
}
