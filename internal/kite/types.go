package kite

// Session is the result of exchanging a request token.
type Session struct {
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	AccessToken  string `json:"access_token"`
	PublicToken  string `json:"public_token"`
	RefreshToken string `json:"refresh_token"`
	LoginTime    string `json:"login_time"`
}

// Profile is the account profile of the logged-in user.
type Profile struct {
	UserID        string   `json:"user_id"`
	UserName      string   `json:"user_name"`
	UserShortname string   `json:"user_shortname"`
	UserType      string   `json:"user_type"`
	Email         string   `json:"email"`
	Broker        string   `json:"broker"`
	AvatarURL     string   `json:"avatar_url"`
	Exchanges     []string `json:"exchanges"`
	Products      []string `json:"products"`
	OrderTypes    []string `json:"order_types"`
}

// Holding is a long-term equity holding. Absent numeric fields decode as zero.
type Holding struct {
	Tradingsymbol       string  `json:"tradingsymbol"`
	Exchange            string  `json:"exchange"`
	ISIN                string  `json:"isin"`
	InstrumentToken     uint32  `json:"instrument_token"`
	Product             string  `json:"product"`
	Quantity            float64 `json:"quantity"`
	T1Quantity          float64 `json:"t1_quantity"`
	AveragePrice        float64 `json:"average_price"`
	LastPrice           float64 `json:"last_price"`
	ClosePrice          float64 `json:"close_price"`
	PnL                 float64 `json:"pnl"`
	DayChange           float64 `json:"day_change"`
	DayChangePercentage float64 `json:"day_change_percentage"`
}

// Position is an intraday or carried-forward derivative/equity position.
type Position struct {
	Tradingsymbol   string  `json:"tradingsymbol"`
	Exchange        string  `json:"exchange"`
	InstrumentToken uint32  `json:"instrument_token"`
	Product         string  `json:"product"`
	Quantity        float64 `json:"quantity"`
	OvernightQty    float64 `json:"overnight_quantity"`
	Multiplier      float64 `json:"multiplier"`
	AveragePrice    float64 `json:"average_price"`
	ClosePrice      float64 `json:"close_price"`
	LastPrice       float64 `json:"last_price"`
	Value           float64 `json:"value"`
	PnL             float64 `json:"pnl"`
	M2M             float64 `json:"m2m"`
	Unrealised      float64 `json:"unrealised"`
	Realised        float64 `json:"realised"`
	BuyQuantity     float64 `json:"buy_quantity"`
	BuyPrice        float64 `json:"buy_price"`
	SellQuantity    float64 `json:"sell_quantity"`
	SellPrice       float64 `json:"sell_price"`
}

// Positions groups net (all open) and day (today's) positions.
type Positions struct {
	Net []Position `json:"net"`
	Day []Position `json:"day"`
}
