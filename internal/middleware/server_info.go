package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// BannerInfo datos de arranque mostrados en consola
type BannerInfo struct {
	Port           string
	StorageDriver  string
	CostingPolicy  string
	TaxSplitPolicy string
	RedisEnabled   bool
	POSConfigured  bool
	ArchiveBucket  string
}

func enabled(on bool) string {
	if on {
		return greenColor + "enabled" + resetColor
	}
	return yellowColor + "disabled" + resetColor
}

// ServerInfo muestra información del servidor al iniciar
func ServerInfo(info BannerInfo, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	startTime := time.Now().Format("2006-01-02 15:04:05")
	base := "http://localhost:" + info.Port

	archive := info.ArchiveBucket
	if archive == "" {
		archive = yellowColor + "disabled" + resetColor
	}

	fmt.Println("")
	fmt.Println("🚀 " + boldColor + "Inventory Service API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + base + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Endpoints:" + resetColor)
	fmt.Println("   POST " + greenColor + "/api/v1/purchases" + resetColor + "            - Purchase ledger")
	fmt.Println("   POST " + greenColor + "/api/v1/sales/reconcile" + resetColor + "      - Sales reconciliation")
	fmt.Println("   POST " + greenColor + "/api/v1/consumption/reconcile" + resetColor + " - Consumption reconciliation")
	fmt.Println("   GET  " + greenColor + "/api/v1/balance-stock" + resetColor + "        - Balance stock")
	fmt.Println("   POST " + greenColor + "/api/v1/import" + resetColor + "               - Spreadsheet import")
	fmt.Println("   POST " + greenColor + "/api/v1/clients" + resetColor + "              - Client sync")
	fmt.Println("   GET  " + greenColor + "/api/v1/backup/export" + resetColor + "        - Backup")
	fmt.Println("")
	fmt.Println("🔍 " + boldColor + "Monitoring:" + resetColor)
	fmt.Println("   📈 Health Check: " + cyanColor + base + "/health" + resetColor)
	fmt.Println("   📉 Prometheus:   " + cyanColor + base + "/metrics" + resetColor)
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Storage: " + info.StorageDriver)
	fmt.Println("   🗃️  Redis cache: " + enabled(info.RedisEnabled))
	fmt.Println("   🧾 Costing: " + info.CostingPolicy + " / GST split: " + info.TaxSplitPolicy)
	fmt.Println("   🔗 POS sync: " + enabled(info.POSConfigured))
	fmt.Println("   ☁️  Backup archive: " + archive)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✨ " + boldColor + "Server is ready to handle requests!" + resetColor)
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", info.Port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.String("storage_driver", info.StorageDriver),
		zap.String("costing_policy", info.CostingPolicy),
		zap.String("tax_split_policy", info.TaxSplitPolicy),
		zap.Bool("redis_enabled", info.RedisEnabled),
		zap.Bool("pos_configured", info.POSConfigured),
		zap.String("start_time", startTime),
	)
}
