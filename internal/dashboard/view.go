package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/termdash/internal/source"
)

const (
	cardWidth  = 34
	barWidth   = 16
	sparkWidth = 28

	// BreakpointWide is the terminal width at which cards sit side by side.
	BreakpointWide = 3 * (cardWidth + 2)
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if !m.hasFrame {
		b.WriteString(m.spinner.View() + LabelStyle.Render(" sampling..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.layout(
			m.renderCPUCard(),
			m.renderMemoryCard(),
			m.renderNetworkCard(),
		))
		b.WriteString("\n")
		b.WriteString(m.layout(
			m.renderSystemCard(),
			m.renderProcessCard(),
			m.renderCryptoCard(),
		))
		b.WriteString("\n")
		if w := m.renderWeather(); w != "" {
			b.WriteString(w)
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderFooter())
	return b.String()
}

// layout joins cards side by side when the terminal is wide enough.
func (m Model) layout(cards ...string) string {
	if m.width >= BreakpointWide {
		return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("termdash")

	parts := []string{title}
	if m.hasFrame {
		parts = append(parts, m.frame.OSName, "up "+m.frame.Uptime)
	}
	if m.branch != "" {
		parts = append(parts, m.branch)
	}
	if m.paused {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorWarning).Render("PAUSED"))
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, m.lastUpdate.Format("15:04:05"))
	}

	return HeaderStyle.Render(strings.Join(parts, " | "))
}

func card(title string, lines ...string) string {
	body := CardTitleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return CardStyle.Width(cardWidth).Render(body)
}

func (m Model) renderCPUCard() string {
	pct := m.frame.CPULoad * 100
	return card("CPU",
		fmt.Sprintf("%s %s", MetricStyle(pct).Render(fmt.Sprintf("%3.0f%%", pct)), ProgressBar(barWidth, pct)),
		RenderSparkline(m.history.Last(SeriesCPU, sparkWidth), sparkWidth, true, ColorGraph),
	)
}

func (m Model) renderMemoryCard() string {
	mem := m.frame.Memory
	pct := mem.UsedRatio() * 100
	disk := m.frame.StorageUsage * 100
	return card("MEMORY",
		fmt.Sprintf("%s %s", MetricStyle(pct).Render(fmt.Sprintf("%3.0f%%", pct)), ProgressBar(barWidth, pct)),
		LabelStyle.Render(fmt.Sprintf("%s / %s", FormatBytes(mem.Used), FormatBytes(mem.Total))),
		RenderSparkline(m.history.Last(SeriesMemory, sparkWidth), sparkWidth, true, ColorGraph),
		LabelStyle.Render("disk ")+ProgressBar(barWidth, disk)+ValueStyle.Render(fmt.Sprintf(" %.0f%%", disk)),
	)
}

func (m Model) renderNetworkCard() string {
	return card("NETWORK",
		ValueStyle.Render("↓ "+FormatRate(m.frame.Download)),
		RenderSparkline(m.history.Last(SeriesDownload, sparkWidth), sparkWidth, false, ColorGraph),
		ValueStyle.Render("↑ "+FormatRate(m.frame.Upload)),
		RenderSparkline(m.history.Last(SeriesUpload, sparkWidth), sparkWidth, false, ColorAccent),
	)
}

func (m Model) renderSystemCard() string {
	temp := "N/A"
	if m.frame.CPUTemperature > 0 {
		temp = fmt.Sprintf("%.1f°C", m.frame.CPUTemperature)
	}
	return card("SYSTEM",
		LabelStyle.Render("power ")+ValueStyle.Render(m.frame.Battery),
		LabelStyle.Render("temp  ")+ValueStyle.Render(temp),
		LabelStyle.Render("fan   ")+ValueStyle.Render(m.frame.FanSpeed),
	)
}

func (m Model) renderProcessCard() string {
	summary := LabelStyle.Render(fmt.Sprintf("%d procs, %d threads", m.frame.ProcessCount, m.frame.ThreadCount))
	return card("PROCESSES", summary, m.procs.View())
}

func (m Model) renderCryptoCard() string {
	assets := m.frame.CryptoAssets
	if len(assets) == 0 {
		return card("CRYPTO", MutedStyle.Render("disabled"))
	}

	prices := m.frame.Crypto
	lines := make([]string, 0, len(assets))
	for _, a := range assets {
		value := m.spinner.View()
		if prices.Loaded() {
			value = ValueStyle.Render(FormatPrice(prices.Values[a]))
		}
		lines = append(lines, LabelStyle.Render(fmt.Sprintf("%-5s ", AssetLabel(a)))+value)
	}
	return card("CRYPTO", lines...)
}

func (m Model) renderWeather() string {
	w := m.frame.Weather
	switch {
	case w == "":
		return ""
	case strings.HasPrefix(w, source.WeatherErrorPrefix):
		return FooterStyle.Render(ErrorStyle.Render(w))
	case w == source.WeatherPlaceholder:
		return FooterStyle.Render(m.spinner.View() + " " + MutedStyle.Render(w))
	}
	return FooterStyle.Render(ValueStyle.Render(w))
}

func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.View(m.keys))
}
