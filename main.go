package main

import "github.com/KaramelBytes/milexcast/cmd"

func main() {
	cmd.Execute()
}
