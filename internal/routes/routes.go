package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreaseirich/tutorflow-sub001/internal/config"
	"github.com/andreaseirich/tutorflow-sub001/internal/handlers"
	"github.com/andreaseirich/tutorflow-sub001/internal/middleware"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	contractRepo := repository.NewContractRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	blockedTimeRepo := repository.NewBlockedTimeRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	lessonPlanRepo := repository.NewLessonPlanRepository(db)

	conflictService := services.NewConflictService(lessonRepo, blockedTimeRepo, contractRepo)
	lessonService := services.NewLessonService(db, lessonRepo, contractRepo, conflictService)
	statusService := services.NewStatusService(db)
	billingService := services.NewBillingService(db, lessonRepo, invoiceRepo)
	reportService := services.NewReportService(lessonRepo, contractRepo)
	llmClient := services.NewLLMClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeoutSeconds, cfg.MockLLM)
	lessonPlanService := services.NewLessonPlanService(studentRepo, lessonRepo, lessonPlanRepo, llmClient)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	studentHandler := handlers.NewStudentHandler(studentRepo)
	contractHandler := handlers.NewContractHandler(contractRepo, studentRepo)
	lessonHandler := handlers.NewLessonHandler(lessonService, statusService)
	blockedTimeHandler := handlers.NewBlockedTimeHandler(blockedTimeRepo)
	billingHandler := handlers.NewBillingHandler(billingService)
	reportHandler := handlers.NewReportHandler(reportService)
	lessonPlanHandler := handlers.NewLessonPlanHandler(lessonPlanService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	students := authProtected.Group("/students")
	students.Post("", studentHandler.Create)
	students.Get("", studentHandler.List)
	students.Get("/:id", studentHandler.Get)
	students.Put("/:id", studentHandler.Update)
	students.Delete("/:id", studentHandler.Delete)

	contracts := authProtected.Group("/contracts")
	contracts.Post("", contractHandler.Create)
	contracts.Get("", contractHandler.List)
	contracts.Get("/:id", contractHandler.Get)
	contracts.Put("/:id", contractHandler.Update)
	contracts.Delete("/:id", contractHandler.Delete)
	contracts.Put("/:id/monthly-plans", contractHandler.UpsertMonthlyPlan)
	contracts.Get("/:id/monthly-plans", contractHandler.ListMonthlyPlans)

	lessons := authProtected.Group("/lessons")
	lessons.Post("", lessonHandler.Create)
	lessons.Get("", lessonHandler.List)
	lessons.Post("/update-past", lessonHandler.UpdatePastToTaught)
	lessons.Get("/:id", lessonHandler.Get)
	lessons.Put("/:id", lessonHandler.Update)
	lessons.Delete("/:id", lessonHandler.Delete)
	lessons.Get("/:id/conflicts", lessonHandler.Conflicts)
	lessons.Put("/:id/status", lessonHandler.UpdateStatus)

	blockedTimes := authProtected.Group("/blocked-times")
	blockedTimes.Post("", blockedTimeHandler.Create)
	blockedTimes.Get("", blockedTimeHandler.List)
	blockedTimes.Get("/:id", blockedTimeHandler.Get)
	blockedTimes.Put("/:id", blockedTimeHandler.Update)
	blockedTimes.Delete("/:id", blockedTimeHandler.Delete)

	invoices := authProtected.Group("/invoices")
	invoices.Get("/billable", billingHandler.ListBillable)
	invoices.Post("", billingHandler.CreateInvoice)
	invoices.Get("", billingHandler.ListInvoices)
	invoices.Get("/:id", billingHandler.GetInvoice)
	invoices.Put("/:id/status", billingHandler.UpdateInvoiceStatus)
	invoices.Delete("/:id", billingHandler.DeleteInvoice)

	reports := authProtected.Group("/reports")
	reports.Get("/planned-vs-actual", reportHandler.MonthlyPlannedVsActual)
	reports.Get("/income", reportHandler.MonthlyIncome)

	lessonPlans := authProtected.Group("/lesson-plans")
	lessonPlans.Post("", lessonPlanHandler.Generate)
	lessonPlans.Get("", lessonPlanHandler.List)
	lessonPlans.Get("/:id", lessonPlanHandler.Get)
	lessonPlans.Delete("/:id", lessonPlanHandler.Delete)

	return registerDocsRoutes(app, cfg)
}
