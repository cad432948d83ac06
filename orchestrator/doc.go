// Package orchestrator routes requests to agents.
//
// Three components cooperate for every dispatch:
//
//  1. Classifier decides whether a request is actionable and which registered
//     agent should handle it (one structured model call).
//  2. Dispatcher validates the request, asks the classifier, and either runs
//     the chosen agent directly or, when the choice is a planner, obtains a
//     plan and hands it to the executor.
//  3. Executor runs a linear plan step by step and aggregates the step
//     responses into one response attributed to "executor".
//
// Every dispatch is sequential: at most one reasoning-service call is in
// flight per request. There are no retries and partial plan results are
// discarded when a step fails.
package orchestrator
