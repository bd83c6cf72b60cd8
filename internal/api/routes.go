package api

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/templates", s.listTemplates)
	s.app.Get("/conditions/functions", s.listConditionFunctions)

	s.app.Get("/graph", s.getGraph)

	g := s.app.Group("/graph")
	g.Get("/mermaid", s.getMermaid)
	g.Post("/nodes", s.dropNode)
	g.Patch("/nodes/:id", s.updateNode)
	g.Put("/nodes/:id/datasource", s.setDataSource)
	g.Post("/nodes/:id/run", s.runNode)
	g.Post("/edges", s.connect)
	g.Delete("/edges/:id", s.removeEdge)
	g.Post("/delete", s.deleteNodes)
	g.Put("/selection", s.setSelection)
	g.Post("/keys", s.handleKey)

	s.app.Post("/runs", s.startRun)
}
