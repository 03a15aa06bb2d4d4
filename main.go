package main

import "github.com/carlospion/AvocadoLegal/server"

func main() {
	s := server.NewServer()
	s.Start(s.Config.Server.Addr)
}
