package memory

import (
	availabilityRepo "reservo/database/repository/availability"
	bookingRepo "reservo/database/repository/booking"
	slotRepo "reservo/database/repository/slot"
	walletRepo "reservo/database/repository/wallet"
)

var (
	_ slotRepo.SlotRepository                 = (*SlotStore)(nil)
	_ bookingRepo.BookingRepository           = (*BookingStore)(nil)
	_ availabilityRepo.AvailabilityRepository = (*AvailabilityStore)(nil)
	_ walletRepo.WalletRepository             = (*WalletStore)(nil)
)
