// Command pocket-agent runs the demo action graphs: a function planner, an
// effective-questioning coach and a book question-answering agent.
package main

func main() {
	Execute()
}
