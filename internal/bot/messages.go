package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgOk            = `Гаразд!`
	MsgUnexpectedErr = `Неочікувана помилка: %s`
	MsgStartWelcome  = `Привіт, %s! Це барахолка — тут можна продати вживані речі.

		/sell — створити оголошення
		/my — мої оголошення
		/phone — додати номер телефону
		/cancel — скасувати поточну дію
		/help — довідка`
	MsgHelp = `Команди:

		/sell — створити оголошення. Бот крок за кроком спитає назву, ціну, опис, фото, місто, спосіб доставки і теги.
		/my — керування вашими оголошеннями: повторна публікація, зміна ціни, продано, видалення.
		/phone — додати номер телефону, щоб покупці могли з вами звʼязатися.
		/cancel — скасувати поточну дію.

		Після модерації оголошення зʼявляється в каналі барахолки.`
	MsgCancelled       = "Скасовано."
	MsgNothingToCancel = "Нема чого скасовувати."
	MsgListingNotFound = "Оголошення не знайдено."
	MsgNotYourListing  = "Це не ваше оголошення."
)

// =============================================================================
// Listing creation flow
// =============================================================================

const (
	MsgAskName          = "Як називається товар?"
	MsgAskPrice         = "Яка ціна? Вкажіть число у гривнях, наприклад 250 або 99.50."
	MsgPriceInvalid     = "Не схоже на ціну. Вкажіть додатне число, наприклад 250 або 99.50."
	MsgAskDescription   = "Опишіть товар кількома реченнями."
	MsgAskPhoto         = "Надішліть фото товару."
	MsgPhotoRequired    = "Потрібне саме фото. Надішліть зображення товару."
	MsgAskCity          = "З якого ви міста? Надішліть «-», якщо не хочете вказувати."
	MsgAskDelivery      = "Як передасте товар покупцю?"
	MsgAskTags          = "Додайте теги через кому, наприклад: #велосипед, #спорт. Слова без # буде пропущено."
	MsgListingSubmitted = "Дякую! Оголошення «%s» надіслано на модерацію. Ми повідомимо, коли його опублікують."
)

// =============================================================================
// Moderation
// =============================================================================

const (
	MsgModNewListing      = "🆕 Нове оголошення на модерацію"
	MsgModSuggestedTags   = "🤖 Запропоновані теги: %s"
	MsgModApproved        = "Опубліковано ✅"
	MsgModRejected        = "Відхилено ❌"
	MsgModAlreadyActive   = "Оголошення вже опубліковано."
	MsgModNotInModeration = "Оголошення не на модерації."
	MsgModEditPrompt      = "Надішліть нове значення поля «%s»."
	MsgModEditDone        = "Поле «%s» оновлено."
	MsgModPhotoFixAsked   = "Продавцю надіслано запит на нове фото."
	MsgSellerContact      = "Контакт продавця: %s"
	MsgSellerNoContact    = "Продавець не залишив контактів."

	MsgSellerApproved     = "✅ Ваше оголошення «%s» опубліковано в каналі!"
	MsgSellerRejected     = "❌ Ваше оголошення «%s» відхилено модератором."
	MsgSellerPhotoFix     = "Модератор просить замінити фото оголошення «%s». Надішліть нове фото."
	MsgSellerPhotoFixDone = "Фото оновлено, оголошення знову на модерації."
)

// =============================================================================
// Listing management (/my)
// =============================================================================

const (
	MsgNoListings         = "У вас поки немає оголошень. Створіть перше: /sell"
	MsgMyListings         = "*Ваші оголошення:*"
	MsgRepublished        = "Оголошення опубліковано повторно."
	MsgRepublishOnlyLive  = "Повторно публікувати можна лише активні оголошення."
	MsgMarkedSold         = "Оголошення позначено як продане. Вітаємо з продажем! 🎉"
	MsgSoldOnlyLive       = "Позначити проданим можна лише активне оголошення."
	MsgDeleted            = "Оголошення видалено."
	MsgAskNewPrice        = "Вкажіть нову ціну в гривнях."
	MsgPriceUpdated       = "Ціну оновлено: %s"
)

// =============================================================================
// Phone number
// =============================================================================

const (
	MsgAskPhone   = "Поділіться номером телефону кнопкою нижче, щоб покупці могли з вами звʼязатися."
	MsgPhoneSaved = "Номер збережено: %s"
)

// =============================================================================
// Assistant
// =============================================================================

const (
	MsgAssistantFallback = "Я вмію допомагати з оголошеннями. Почніть з /sell або перегляньте /help."
)

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnApprove       = "✅ Опублікувати"
	BtnReject        = "❌ Відхилити"
	BtnEditName      = "✏️ Назва"
	BtnEditDescr     = "✏️ Опис"
	BtnEditPrice     = "✏️ Ціна"
	BtnEditCity      = "✏️ Місто"
	BtnEditDelivery  = "✏️ Доставка"
	BtnEditTags      = "✏️ Теги"
	BtnPhotoFix      = "📷 Нове фото"
	BtnContactSeller = "💬 Продавець"

	BtnRepublish   = "📢 Опублікувати ще раз"
	BtnSold        = "✅ Продано"
	BtnDelete      = "🗑 Видалити"
	BtnChangePrice = "💰 Змінити ціну"

	BtnSharePhone = "📱 Поділитися номером"

	BtnDeliveryNova = "Нова Пошта"
	BtnDeliveryUkr  = "Укрпошта"
	BtnDeliveryMeet = "Особиста зустріч"
)
