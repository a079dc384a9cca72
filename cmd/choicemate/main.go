// Command choicemate is a terminal client for the ChoiceMate decision backend.
package main

import "github.com/diogo/choicemate/internal/commands"

func main() {
	commands.Execute()
}
