// cmd/nutrilog/main.go
package main

import "nutrilog/internal/cmd"

func main() {
	cmd.Execute()
}
