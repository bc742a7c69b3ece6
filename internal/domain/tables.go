package domain

// Tables all tables in the system, auto migrated on startup.
var Tables = []interface{}{
	&SysTenant{},
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	&SysScheduler{},
	&ChanChannel{},
	&WhatsappSession{},
	&CrmContact{},
	&CrmPipeline{},
	&CrmPipelineStage{},
	&CrmDeal{},
	&CrmTask{},
	&CrmTag{},
	&ChatConversation{},
	&ChatMessage{},
	&BillingPlan{},
	&BillingSubscription{},
}
