// Command colloquy chats with a rule-driven bot from the terminal, or serves
// it over HTTP and MCP.
package main

func main() {
	Execute()
}
