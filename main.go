package main

import "github.com/PavanSai0211/Finance-Reporting-Project/cmd"

func main() {
	cmd.Execute()
}
