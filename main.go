package main

import "github.com/frahmantamala/portal-admin/cmd"

func main() {
	cmd.Execute()
}
