package main

import "github.com/redactyl/riskscan/cmd/riskscan"

func main() { riskscan.Execute() }
