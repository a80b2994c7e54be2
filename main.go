package main

import "github.com/RyanBlaney/cepstral-monitor/cmd"

func main() {
	cmd.Execute()
}
