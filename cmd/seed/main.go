package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rl1809/condo-market/internal/adapter/storage"
	"github.com/rl1809/condo-market/internal/core/domain"
)

// Development seeding: a couple of vendors with catalogs, loyalty
// settings and one customer profile.
func main() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/condomarket?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	store := storage.NewMySQLStore(db)

	vendors := []domain.Vendor{
		{
			ID:             "vendor-doces-da-ana",
			OwnerID:        "user-ana",
			Name:           "Doces da Ana",
			Description:    "Bolos de pote e doces caseiros, entrega no seu bloco.",
			Location:       "Bloco B, Ap 104",
			Phone:          "(11) 98765-4321",
			Category:       domain.CategoryFood,
			LoyaltyEnabled: true,
		},
		{
			ID:          "vendor-pet-walker",
			OwnerID:     "user-carlos",
			Name:        "Passeios do Carlos",
			Description: "Passeio com pets do condomínio, horários flexíveis.",
			Location:    "Bloco A, Ap 52",
			Phone:       "(11) 91234-5678",
			Category:    domain.CategoryServices,
		},
	}

	products := map[string][]domain.Product{
		"vendor-doces-da-ana": {
			{
				ID:           "prod-bolo-pote",
				Name:         "Bolo de pote",
				Description:  "Chocolate com brigadeiro, 250ml.",
				Price:        domain.NewPrice(decimal.RequireFromString("10.00")),
				Availability: domain.AvailabilityInStock,
			},
			{
				ID:           "prod-brownie",
				Name:         "Brownie",
				Description:  "Com nozes.",
				Price:        domain.NewPrice(decimal.RequireFromString("5.50")),
				Availability: domain.AvailabilityToOrder,
			},
		},
		"vendor-pet-walker": {
			{
				ID:          "prod-passeio",
				Name:        "Passeio avulso",
				Description: "Duração e preço combinados por pet.",
				Price:       domain.DisplayPrice("Sob consulta"),
			},
		},
	}

	for _, v := range vendors {
		if err := store.Set(ctx, "vendors/"+v.ID, v, false); err != nil {
			log.Fatalf("seed vendor %s: %v", v.ID, err)
		}
		log.Printf("seeded vendor %s", v.Name)
	}

	for vendorID, list := range products {
		for _, p := range list {
			p.VendorID = vendorID
			if err := store.Set(ctx, "vendors/"+vendorID+"/products/"+p.ID, p, false); err != nil {
				log.Fatalf("seed product %s: %v", p.ID, err)
			}
		}
	}

	settings := domain.LoyaltySettings{
		PointsNeeded:      10,
		RewardDescription: "Um bolo de pote grátis",
	}
	if err := store.Set(ctx, "vendors/vendor-doces-da-ana/loyaltySettings/config", settings, false); err != nil {
		log.Fatalf("seed loyalty settings: %v", err)
	}

	customer := domain.Customer{
		ID:          "user-maria",
		Email:       "maria@example.com",
		DisplayName: "Maria Souza",
		Location:    "Bloco C, Ap 301",
		Phone:       "(11) 99876-1122",
		Role:        domain.RoleCustomer,
	}
	if err := store.Set(ctx, "users/"+customer.ID, customer, false); err != nil {
		log.Fatalf("seed customer: %v", err)
	}

	log.Println("seed complete")
}
