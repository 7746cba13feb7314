package main

import "github.com/mvp-joe/treeparser/internal/cli"

func main() {
	cli.Execute()
}
