package main

import "market-reports/cmd"

func main() {
	cmd.Execute()
}
