// Package adminapi implements the REST handlers served under /api/v1.
package adminapi

// Init registers every handler group into the webserver route registry.
// Must run before webserver.Init.
func Init() {
	registerAuthRoutes()
	registerContactsRoutes()
	registerConversationsRoutes()
	registerMessagesRoutes()
	registerChannelsRoutes()
	registerWhatsappRoutes()
	registerPipelinesRoutes()
	registerDealsRoutes()
	registerTasksRoutes()
	registerTagsRoutes()
	registerBillingRoutes()
	registerSystemRoutes()
	registerSchedulersRoutes()
}
