// This program performs administrative tasks for the node.
package main

import (
	"github.com/veritascoin/veritas/app/tooling/admin/commands"
)

func main() {
	commands.Execute()
}
