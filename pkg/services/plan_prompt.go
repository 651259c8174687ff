package services

import (
	"fmt"
	"strings"
)

// planSystemMessage frames the model for plan generation.
const planSystemMessage = "You are an expert academic planner who turns course material into actionable study tasks."

// BuildPlanPrompt composes the plan generation prompt. It is deterministic:
// the same goal, weeks and material always produce the same prompt.
// Material is embedded between triple quotes as-is.
func BuildPlanPrompt(goal string, weeks int, material string) string {
	var sb strings.Builder

	sb.WriteString("Based on the following course material, create a detailed, actionable study plan for a student.\n\n")
	fmt.Fprintf(&sb, "Student's Goal: %q\n", strings.TrimSpace(goal))
	fmt.Fprintf(&sb, "Timeframe: %s\n\n", FormatCount(weeks, "week"))

	sb.WriteString("Course Material:\n\"\"\"\n")
	sb.WriteString(material)
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString("Your Task:\n")
	sb.WriteString("Generate a list of study tasks. For each task, provide a clear, concise title and a suggested priority.\n")
	sb.WriteString("The tasks should break the material down so the student can reach the goal within the timeframe.\n\n")

	sb.WriteString("IMPORTANT: Respond ONLY with a valid JSON array of objects. Do not include any other text, explanation, or markdown formatting.\n")
	sb.WriteString(`Each object must have exactly two keys: "title" (string) and "priority" (one of "low", "medium" or "high").`)
	sb.WriteString("\n\nExample response:\n")
	sb.WriteString(`[
  {"title": "Review Chapter 1: Introduction to Cellular Biology", "priority": "high"},
  {"title": "Create flashcards for key terms from the syllabus", "priority": "medium"}
]`)
	sb.WriteString("\n")

	return sb.String()
}
