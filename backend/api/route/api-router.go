package route

import (
	"formbase/backend/api/handler"
	"formbase/backend/api/middleware"

	"github.com/gin-gonic/gin"
)

func SetApiRouter(route *gin.Engine) {
	apiRouter := route.Group("/api")
	apiRouter.Use(middleware.GlobalAPIRateLimit())
	{
		// Public routes (no authentication required)
		apiRouter.GET("/status", handler.GetStatus)

		// Authentication routes
		authRoutes := apiRouter.Group("/auth")
		{
			authRoutes.POST("/register", middleware.CriticalRateLimit(), handler.Register)
			authRoutes.POST("/login", middleware.CriticalRateLimit(), handler.Login)
			authRoutes.POST("/refresh", middleware.CriticalRateLimit(), handler.RefreshToken)
			authRoutes.POST("/logout", handler.Logout)
		}

		// User routes that require authentication
		userRoute := apiRouter.Group("/user")
		userRoute.Use(middleware.JWTAuth())
		{
			userRoute.GET("/self", handler.GetSelf)
		}

		// Form builder routes (owner or admin)
		formRoute := apiRouter.Group("/form")
		formRoute.Use(middleware.JWTAuth())
		{
			formRoute.POST("/", handler.CreateForm)
			formRoute.GET("/", handler.ListForms)
			formRoute.GET("/:id", handler.GetForm)
			formRoute.PUT("/:id", handler.UpdateForm)
			formRoute.DELETE("/:id", handler.DeleteForm)
			formRoute.GET("/:id/submissions", handler.ListSubmissions)
			formRoute.DELETE("/:id/submissions/:sid", handler.DeleteSubmission)
		}

		// Public form rendering and submission, addressed by share-link id.
		// Submissions may be anonymous but still carry identity when present
		// so the rate limiter can key on the user instead of the IP hash.
		publicRoute := apiRouter.Group("/f")
		publicRoute.Use(middleware.TryAuth())
		{
			publicRoute.GET("/:public_id", handler.GetPublicForm)
			publicRoute.POST("/:public_id/submit", middleware.CriticalRateLimit(), handler.SubmitForm)
		}

		// File storage routes
		fileRoute := apiRouter.Group("/file")
		{
			fileRoute.GET("/*path", middleware.DownloadRateLimit(), handler.DownloadFile)

			authedFileRoute := apiRouter.Group("/file")
			authedFileRoute.Use(middleware.TryAuth())
			{
				authedFileRoute.POST("", middleware.UploadRateLimit(), handler.UploadFile)
			}
		}
		imageRoute := apiRouter.Group("/image")
		imageRoute.Use(middleware.TryAuth())
		{
			imageRoute.POST("", middleware.UploadRateLimit(), handler.UploadImage)
		}

		// Authenticated file management
		myFilesRoute := apiRouter.Group("/files")
		myFilesRoute.Use(middleware.JWTAuth())
		{
			myFilesRoute.GET("/mine", handler.ListMyFiles)
			myFilesRoute.DELETE("/:id", handler.DeleteFile)
		}

		// Option routes (Root admin only)
		optionRoute := apiRouter.Group("/option")
		optionRoute.Use(middleware.JWTAuth())
		optionRoute.Use(middleware.RootAuth())
		{
			optionRoute.GET("/", handler.GetOptions)
			optionRoute.PUT("/", handler.UpdateOption)
		}
	}
}
