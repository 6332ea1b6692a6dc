package main

import "github.com/charmbracelet/lipgloss"

var (
	primaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7B61FF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func primaryText(s string) string { return primaryStyle.Render(s) }
func errorText(s string) string   { return errorStyle.Render(s) }
func mutedText(s string) string   { return mutedStyle.Render(s) }
