package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
)

var greetings = [...]string{
	"The clock is running. Your commits are not.",
	"Somewhere a team is one backend dev short. It might be yours.",
	"Demo day waits for no one. Sign in.",
	"Every winning project started as a half-working prototype at 3am.",
	"The judges can't score what you never submitted.",
	"Pizza is ordered. Whiteboards are clean. You are outside.",
	"Ideas are cheap. Shipped ideas get prizes.",
	"Three teams just formed while you read this.",
}

// printGreeting is shown to anonymous users in place of a profile.
func printGreeting(w io.Writer) {
	msg := greetings[rand.IntN(len(greetings))]

	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a78bfa")).
		Bold(true).
		Render("HACKFORGE")

	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(msg)

	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Render("Not signed in. To enter: hackforge login")

	fmt.Fprintf(w, "\n%s\n\n%s\n\n%s\n\n", title, quote, hint)
}
