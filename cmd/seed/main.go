// Command seed loads demo data: profiles and permissions, demo users,
// the bakery catalog, customers and a handful of sales with lines.
// Sales are persisted through the sale service so folios and totals come
// out of the same path the app uses.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/forneria/shop/internal/db"
	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/services"
)

func main() {
	_ = godotenv.Load()
	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	conn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := run(conn); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("demo data loaded")
}

func run(conn *gorm.DB) error {
	if err := db.SeedProfiles(conn); err != nil {
		return err
	}
	if err := seedUsers(conn); err != nil {
		return err
	}

	categories, err := seedCategories(conn)
	if err != nil {
		return err
	}
	products, err := seedProducts(conn, categories)
	if err != nil {
		return err
	}
	customers, err := seedCustomers(conn)
	if err != nil {
		return err
	}
	if err := seedSales(conn, customers, products); err != nil {
		return err
	}
	return seedInventory(conn, products)
}

func seedUsers(conn *gorm.DB) error {
	users := []struct {
		Email, Name, Last, RUN, Phone, Profile, Password string
	}{
		{"roberto.lagos@forneria.cl", "Roberto", "Lagos", "16789345-6", "+56987654321", "admin", "admin123"},
		{"carlos.munoz@forneria.cl", "Carlos", "Muñoz", "15678234-5", "+56912345678", "vendedor", "vendedor123"},
		{"lector.pedro@forneria.cl", "Pedro", "Lector", "17890456-7", "+56911112222", "lector", "lector123"},
	}
	for _, u := range users {
		var profile models.Profile
		if err := conn.Where("name = ?", u.Profile).First(&profile).Error; err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{
			Email:     u.Email,
			Password:  string(hash),
			FirstName: u.Name,
			LastName:  u.Last,
			RUN:       u.RUN,
			Phone:     u.Phone,
			ProfileID: &profile.ID,
		}
		if err := conn.Where("email = ?", u.Email).FirstOrCreate(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedCategories(conn *gorm.DB) (map[string]models.Category, error) {
	defs := []models.Category{
		{Name: "Pan", Description: "Panes artesanales y tradicionales"},
		{Name: "Pasteles", Description: "Tortas y pasteles"},
		{Name: "Galletas", Description: "Galletas dulces y saladas"},
		{Name: "Bebidas", Description: "Bebidas frías y calientes"},
		{Name: "Empanadas", Description: "Empanadas horneadas"},
		{Name: "Dulces", Description: "Productos dulces y postres"},
	}
	out := make(map[string]models.Category, len(defs))
	for _, c := range defs {
		if err := conn.Where("name = ?", c.Name).FirstOrCreate(&c).Error; err != nil {
			return nil, err
		}
		out[c.Name] = c
	}
	return out, nil
}

type productDef struct {
	Name, Description, Category, Presentation, Format string
	Price                                             int64
	ShelfDays                                         int
	Stock, Min, Max                                   int
	Nutrition                                         models.NutritionProfile
}

func seedProducts(conn *gorm.DB, categories map[string]models.Category) ([]models.Product, error) {
	breadNutrition := models.NutritionProfile{
		Calories: decimal.NewFromInt(250), Protein: decimal.NewFromInt(8),
		Fat: decimal.NewFromInt(3), Carbs: decimal.NewFromInt(45),
		Sugar: decimal.NewFromInt(2), Sodium: decimal.NewFromInt(400),
	}
	cakeNutrition := models.NutritionProfile{
		Calories: decimal.NewFromInt(350), Protein: decimal.NewFromInt(5),
		Fat: decimal.NewFromInt(15), Carbs: decimal.NewFromInt(50),
		Sugar: decimal.NewFromInt(25), Sodium: decimal.NewFromInt(200),
	}
	savoryNutrition := models.NutritionProfile{
		Calories: decimal.NewFromInt(180), Protein: decimal.NewFromInt(6),
		Fat: decimal.NewFromInt(2), Carbs: decimal.NewFromInt(35),
		Sugar: decimal.NewFromInt(8), Sodium: decimal.NewFromInt(300),
	}
	drinkNutrition := models.NutritionProfile{Sodium: decimal.NewFromInt(10)}

	defs := []productDef{
		{"Marraqueta", "Pan tradicional chileno, crujiente por fuera y suave por dentro", "Pan", "unidad", "1 unidad (aprox. 100g)", 800, 2, 50, 10, 100, breadNutrition},
		{"Hallulla", "Pan redondo tradicional chileno", "Pan", "unidad", "1 unidad (aprox. 80g)", 600, 2, 80, 15, 150, breadNutrition},
		{"Pan Amasado", "Pan amasado tradicional hecho en horno de barro", "Pan", "unidad", "1 unidad (aprox. 120g)", 1000, 3, 40, 10, 80, breadNutrition},
		{"Torta de Chocolate", "Torta de chocolate con manjar y cobertura de chocolate", "Pasteles", "unidad", "1 kg (8-10 porciones)", 12000, 5, 3, 3, 15, cakeNutrition},
		{"Torta Tres Leches", "Torta tradicional bañada en tres leches", "Pasteles", "unidad", "1 kg (8-10 porciones)", 10000, 4, 5, 2, 12, cakeNutrition},
		{"Galletas de Avena", "Galletas caseras de avena con pasas", "Galletas", "bolsa", "bolsa 6 unidades", 2500, 10, 30, 5, 60, cakeNutrition},
		{"Empanada de Pino", "Empanada horneada de pino tradicional", "Empanadas", "unidad", "1 unidad (aprox. 200g)", 2000, 2, 25, 5, 50, savoryNutrition},
		{"Empanada de Queso", "Empanada horneada de queso", "Empanadas", "unidad", "1 unidad (aprox. 180g)", 1600, 2, 25, 5, 50, savoryNutrition},
		{"Jugo Natural de Naranja", "Jugo natural recién exprimido", "Bebidas", "vaso", "vaso 400ml", 2200, 1, 15, 3, 30, drinkNutrition},
		{"Café Latte", "Café espresso con leche vaporizada", "Bebidas", "vaso", "vaso 350ml", 2800, 1, 100, 10, 200, drinkNutrition},
		{"Alfajor de Manjar", "Alfajor chileno relleno de manjar", "Dulces", "unidad", "1 unidad", 900, 7, 40, 8, 80, cakeNutrition},
		{"Kuchen de Manzana", "Kuchen casero de manzana", "Pasteles", "unidad", "1 kg (8 porciones)", 9000, 4, 4, 2, 10, cakeNutrition},
	}

	today := time.Now()
	out := make([]models.Product, 0, len(defs))
	for _, d := range defs {
		var existing models.Product
		err := conn.Where("name = ?", d.Name).First(&existing).Error
		if err == nil {
			out = append(out, existing)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		nutrition := d.Nutrition
		if err := conn.Create(&nutrition).Error; err != nil {
			return nil, err
		}
		production := today
		p := models.Product{
			Name:               d.Name,
			Brand:              "Fornería Artesanal",
			Description:        d.Description,
			UnitPrice:          decimal.NewFromInt(d.Price),
			ExpiryDate:         today.AddDate(0, 0, d.ShelfDays),
			ProductionDate:     &production,
			Kind:               models.KindPropia,
			CategoryID:         categories[d.Category].ID,
			StockCurrent:       d.Stock,
			StockMin:           d.Min,
			StockMax:           d.Max,
			Presentation:       d.Presentation,
			Format:             d.Format,
			NutritionProfileID: nutrition.ID,
		}
		if err := conn.Create(&p).Error; err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func seedCustomers(conn *gorm.DB) ([]models.Customer, error) {
	ruts := []string{"12345678-9", "98765432-1", "11223344-5", "55667788-9"}
	names := []string{"Juan Pérez García", "María González López", "Pedro Rodríguez Silva", "Ana Martínez Fernández"}
	emails := []string{"juan.perez@email.com", "maria.gonzalez@email.com", "pedro.rodriguez@email.com", "ana.martinez@email.com"}

	out := make([]models.Customer, 0, 5)
	for i := range ruts {
		rut := ruts[i]
		c := models.Customer{RUT: &rut, Name: names[i], Email: emails[i]}
		if err := conn.Where("rut = ?", rut).FirstOrCreate(&c).Error; err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	generic := models.Customer{Name: "Cliente Genérico", Email: "cliente@forneria.cl"}
	if err := conn.Where("name = ?", generic.Name).FirstOrCreate(&generic).Error; err != nil {
		return nil, err
	}
	out = append(out, generic)
	return out, nil
}

func seedSales(conn *gorm.DB, customers []models.Customer, products []models.Product) error {
	var existing int64
	if err := conn.Model(&models.Sale{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	svc := services.NewSaleService(conn)
	ctx := context.Background()
	paid := decimal.NewFromInt(6000)
	paid5 := decimal.NewFromInt(5000)

	sales := []services.SaleInput{
		{
			CustomerID: customers[0].ID,
			Channel:    models.ChannelLocal,
			AmountPaid: &paid,
			Lines: []services.LineInput{
				{ProductID: products[0].ID, Quantity: 3},
				{ProductID: products[1].ID, Quantity: 2},
				{ProductID: products[8].ID, Quantity: 1},
			},
		},
		{
			CustomerID: customers[1].ID,
			Channel:    models.ChannelInstagram,
			Discount:   decimal.NewFromInt(500),
			Lines:      []services.LineInput{{ProductID: products[3].ID, Quantity: 1}},
		},
		{
			CustomerID: customers[2].ID,
			Channel:    models.ChannelWhatsApp,
			Lines: []services.LineInput{
				{ProductID: products[6].ID, Quantity: 3},
				{ProductID: products[7].ID, Quantity: 2},
			},
		},
		{
			CustomerID: customers[3].ID,
			Channel:    models.ChannelUberEats,
			Lines:      []services.LineInput{{ProductID: products[4].ID, Quantity: 1}},
		},
		{
			CustomerID: customers[4].ID,
			Channel:    models.ChannelLocal,
			Discount:   decimal.NewFromInt(200),
			AmountPaid: &paid5,
			Lines: []services.LineInput{
				{ProductID: products[2].ID, Quantity: 2},
				{ProductID: products[10].ID, Quantity: 2},
			},
		},
	}
	for _, in := range sales {
		if _, err := svc.Save(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func seedInventory(conn *gorm.DB, products []models.Product) error {
	var existing int64
	if err := conn.Model(&models.StockMovement{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	inv := services.NewInventoryService(conn)
	ctx := context.Background()
	movements := []models.StockMovement{
		{ProductID: products[0].ID, Type: models.MovementIn, Quantity: 100},
		{ProductID: products[0].ID, Type: models.MovementOut, Quantity: 50},
		{ProductID: products[3].ID, Type: models.MovementIn, Quantity: 10},
		{ProductID: products[6].ID, Type: models.MovementOut, Quantity: 20},
	}
	for i := range movements {
		if err := inv.RecordMovement(ctx, &movements[i]); err != nil {
			return err
		}
	}
	_, err := inv.EvaluateExpiryAlerts(ctx, time.Now())
	return err
}
