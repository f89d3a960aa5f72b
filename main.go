package main

import "github.com/finsight/marketcal/cmd"

func main() {
	cmd.Execute()
}
