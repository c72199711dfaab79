package routes

import (
	"github.com/gin-gonic/gin"

	"deviceloan/app"
	"deviceloan/controllers"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	deviceCtl := controllers.NewDeviceController(s)
	productCtl := controllers.NewProductController(s)
	serviceCtl := controllers.NewServiceController(s)
	activityCtl := controllers.NewActivityController(s)
	uploadCtl := controllers.NewUploadController(s)

	authMW := app.AuthRequired(a.Sessions)
	adminMW := app.AdminOnly()

	// ------------------------------
	// Auth
	// ------------------------------
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authCtl.Login)
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/whoami", authMW, authCtl.Whoami)
	}

	// ------------------------------
	// Devices: browse + lifecycle
	// ------------------------------
	devices := r.Group("/api/devices", authMW)
	{
		devices.GET("", deviceCtl.List)
		devices.GET("/lookup", deviceCtl.Lookup) // ?code=<tag|serial>
		devices.POST("/:id/borrow", deviceCtl.Borrow)
		devices.POST("/:id/return", deviceCtl.Return)
		devices.POST("/:id/report", deviceCtl.Report)
	}

	devicesAdmin := r.Group("/api/devices", authMW, adminMW)
	{
		devicesAdmin.POST("", deviceCtl.Save)
		devicesAdmin.PUT("/:id", deviceCtl.Save)
		devicesAdmin.DELETE("/:id", deviceCtl.Delete)
		devicesAdmin.POST("/:id/approve", deviceCtl.Approve)
		devicesAdmin.POST("/:id/reject", deviceCtl.Reject)
		devicesAdmin.POST("/:id/assign", deviceCtl.Assign)
	}

	// ------------------------------
	// Products + approval workflow
	// ------------------------------
	products := r.Group("/api/products", authMW)
	{
		products.GET("", productCtl.List)
		// Stock requests come from teachers (admins may file them too).
		products.POST("/:id/request", app.TeacherOnly(), productCtl.Request)
	}

	productsAdmin := r.Group("/api/products", authMW, adminMW)
	{
		productsAdmin.POST("", productCtl.Save)
		productsAdmin.PUT("/:id", productCtl.Save)
		productsAdmin.DELETE("/:id", productCtl.Delete)
	}

	approvalsAdmin := r.Group("/api/product-approvals", authMW, adminMW)
	{
		approvalsAdmin.GET("", productCtl.ListApprovals)
		approvalsAdmin.POST("/:id/approve", productCtl.ApproveRequest)
		approvalsAdmin.POST("/:id/reject", productCtl.RejectRequest)
	}

	// ------------------------------
	// Service tickets (admin workflow)
	// ------------------------------
	service := r.Group("/api/service-requests", authMW)
	{
		service.GET("", serviceCtl.List)
	}
	serviceAdmin := r.Group("/api/service-requests", authMW, adminMW)
	{
		serviceAdmin.POST("/:id/advance", serviceCtl.Advance)
	}

	// ------------------------------
	// Activity, history, directories
	// ------------------------------
	misc := r.Group("/api", authMW)
	{
		misc.GET("/notifications", activityCtl.Notifications)
		misc.GET("/history", activityCtl.History)

		misc.POST("/uploads", uploadCtl.Upload)
		misc.PUT("/profile/picture", uploadCtl.UpdateProfilePicture)
	}

	miscAdmin := r.Group("/api", authMW, adminMW)
	{
		miscAdmin.GET("/activity", activityCtl.Logs)
		miscAdmin.GET("/users", activityCtl.Users)
	}
}
