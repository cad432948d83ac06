package agent

const fixMyBugSystem = "You are a bug-fixing agent that provides clear and concise solutions to coding issues."

const fixMyBugPrompt = `Find and fix the bug in the following code or error report.
Return the code as submitted, the corrected code and a short explanation of the fix.

Input:
"""
{{.Input}}
"""`

const plannerSystem = "You are a task planner that breaks down requests into agent steps."

const plannerPrompt = `You are a planning agent. Break down the user's request into a sequence of steps.
Each step should call a named agent and provide the input it needs.
Only use the agents listed below, and keep the steps minimal.

Available agents:
{{- range .Agents}}
- {{.Name}}: {{default "No description" .Description}}
{{- end}}

User request:
{{.Input}}`
